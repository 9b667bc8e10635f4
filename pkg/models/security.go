// Package models holds configuration types shared across services.
package models

import "path/filepath"

// TLSConfig names the certificate material for an mTLS connection.
type TLSConfig struct {
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file"`
}

// SecurityConfig holds common transport security configuration.
type SecurityConfig struct {
	Mode       string    `json:"mode"`
	CertDir    string    `json:"cert_dir"`
	ServerName string    `json:"server_name,omitempty"`
	TLS        TLSConfig `json:"tls"`
}

// NormalizeTLSPaths resolves relative certificate paths against the
// configured cert directory.
func (s *SecurityConfig) NormalizeTLSPaths() {
	if s == nil || s.CertDir == "" {
		return
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(s.CertDir, p)
	}

	s.TLS.CertFile = resolve(s.TLS.CertFile)
	s.TLS.KeyFile = resolve(s.TLS.KeyFile)
	s.TLS.CAFile = resolve(s.TLS.CAFile)
}
