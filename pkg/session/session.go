// Package session tracks per-client wireless association state across
// location notifications and routes normalized records through the
// enrichment pipeline.
package session

import (
	"strings"

	"github.com/edgewatch/enrichd/pkg/enrich"
	"github.com/edgewatch/enrichd/pkg/record"
)

// Notification field names as they appear on inbound wireless-location
// events.
const (
	notifListField        = "notifications"
	notifTypeField        = "notificationType"
	notifDeviceID         = "deviceId"
	notifSSID             = "ssid"
	notifBand             = "band"
	notifStatus           = "status"
	notifAPMacAddr        = "apMacAddress"
	notifUsername         = "username"
	notifSubscriptionName = "subscriptionName"
	notifMapHierarchy     = "locationMapHierarchy"
	notifTimestamp        = "timestamp"
)

// Notification type discriminators.
const (
	TypeAssociation    = "association"
	TypeLocationUpdate = "locationupdate"
)

const maxHierarchyLevels = 4

var hierarchyFields = [maxHierarchyLevels]string{
	enrich.FieldCampus,
	enrich.FieldBuilding,
	enrich.FieldFloor,
	enrich.FieldZone,
}

// sessionKey derives the session-cache key: client identifier and namespace
// identifier concatenated with no separator, namespace defaulting to the
// empty string.
func sessionKey(clientMAC, namespaceID string) string {
	return clientMAC + namespaceID
}

// associationState extracts the session fields present on an association
// notification. Absent fields stay absent; an unknown status code maps to an
// absent attribute, not an error.
func associationState(n record.Record) record.Record {
	state := record.Record{}

	if v, ok := n[notifSSID]; ok && v != nil {
		state[enrich.FieldWirelessID] = v
	}

	if v, ok := n[notifBand]; ok && v != nil {
		state[enrich.FieldDot11Protocol] = v
	}

	if code, ok := n.Int64(notifStatus); ok {
		if name, known := StatusName(code); known {
			state[enrich.FieldDot11Status] = name
		}
	}

	if v, ok := n[notifAPMacAddr]; ok && v != nil {
		state[enrich.FieldWirelessStation] = v
	}

	if username, ok := n.String(notifUsername); ok && username != "" {
		state[enrich.FieldClientID] = username
	}

	return state
}

// locationState extracts the session fields present on a location-update
// notification.
func locationState(n record.Record) record.Record {
	state := record.Record{}

	if v, ok := n[notifAPMacAddr]; ok && v != nil {
		state[enrich.FieldWirelessStation] = v
	}

	if v, ok := n[notifSSID]; ok && v != nil {
		state[enrich.FieldWirelessID] = v
	}

	return state
}

// parseHierarchy splits a "Campus>Building>Floor>Zone" string into up to
// four levels. A level that is present but empty is still assigned; levels
// beyond the fourth are ignored.
func parseHierarchy(hierarchy string) record.Record {
	levels := strings.Split(hierarchy, ">")
	out := record.Record{}

	for i, field := range hierarchyFields {
		if i >= len(levels) {
			break
		}

		out[field] = levels[i]
	}

	return out
}

// mergeSession reconciles the current update with the previously persisted
// session. Fields the update does not set are carried forward from the
// existing session (last-known-value merge); with no prior session the
// client was observed at a location without an association record, so the
// status defaults to PROBING.
func mergeSession(existing, update record.Record) record.Record {
	out := update.Clone()

	if existing == nil {
		if !out.Has(enrich.FieldDot11Status) {
			out[enrich.FieldDot11Status] = StatusProbing
		}

		return out
	}

	out.Fill(existing)

	return out
}
