// Package geo derives country and AS-organization attributes from the
// source and destination addresses of a record, using MaxMind databases.
// It is a consulted capability: lookups that miss or fail contribute
// nothing and never abort the record.
package geo

import (
	"context"
	"fmt"
	"net"

	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/record"
	"github.com/oschwald/maxminddb-golang"
	"github.com/rs/zerolog"
)

type Config struct {
	CityDBPath string `json:"city_db_path"`
	ASNDBPath  string `json:"asn_db_path"`
}

type cityResult struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

type asnResult struct {
	Organization string `maxminddb:"autonomous_system_organization"`
}

// Enricher adds src/dst country codes and AS names. A database whose path is
// left empty is simply not consulted.
type Enricher struct {
	city *maxminddb.Reader
	asn  *maxminddb.Reader
	log  zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) (*Enricher, error) {
	e := &Enricher{log: log}

	if cfg.CityDBPath != "" {
		city, err := maxminddb.Open(cfg.CityDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open city database: %w", err)
		}

		e.city = city
	}

	if cfg.ASNDBPath != "" {
		asn, err := maxminddb.Open(cfg.ASNDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ASN database: %w", err)
		}

		e.asn = asn
	}

	return e, nil
}

func (e *Enricher) Enrich(_ context.Context, rec record.Record) (record.Record, error) {
	out := record.Record{}

	e.lookupSide(rec, out, enrich.FieldSrcAddr, "src_country_code", "src_as_name")
	e.lookupSide(rec, out, enrich.FieldDstAddr, "dst_country_code", "dst_as_name")

	return out, nil
}

func (e *Enricher) lookupSide(rec, out record.Record, addrField, countryField, asField string) {
	addr, ok := rec.String(addrField)
	if !ok || addr == "" {
		return
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return
	}

	if e.city != nil {
		var city cityResult

		if err := e.city.Lookup(ip, &city); err != nil {
			e.log.Debug().Err(err).Str("addr", addr).Msg("City lookup failed")
		} else if city.Country.ISOCode != "" {
			out[countryField] = city.Country.ISOCode
		}
	}

	if e.asn != nil {
		var asn asnResult

		if err := e.asn.Lookup(ip, &asn); err != nil {
			e.log.Debug().Err(err).Str("addr", addr).Msg("ASN lookup failed")
		} else if asn.Organization != "" {
			out[asField] = asn.Organization
		}
	}
}

func (e *Enricher) Close() error {
	if e.city != nil {
		if err := e.city.Close(); err != nil {
			return err
		}
	}

	if e.asn != nil {
		return e.asn.Close()
	}

	return nil
}

var _ enrich.Enricher = (*Enricher)(nil)
