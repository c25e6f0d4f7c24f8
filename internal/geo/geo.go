// Package geo annotates resolver addresses with the organisation that
// announces them, using a MaxMind-format ASN database.
package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"

	"github.com/tbckr/dnsbench/internal/apperr"
)

type asnReader interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
	Close() error
}

// DB looks up ASN records. A nil *DB is valid and resolves nothing.
type DB struct {
	reader asnReader
	logger *slog.Logger
}

// Open loads the ASN database at path. An empty path disables lookups and
// returns a nil DB without error.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if path == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening ASN database %q: %w", apperr.ErrInvalidInput, path, err)
	}
	return &DB{reader: reader, logger: logger}, nil
}

// Org returns "AS<number> <organisation>" for addr, or "" when unknown.
func (d *DB) Org(addr netip.Addr) string {
	if d == nil || !addr.IsValid() {
		return ""
	}
	record, err := d.reader.ASN(net.IP(addr.Unmap().AsSlice()))
	if err != nil {
		d.logger.Debug("ASN lookup failed", "addr", addr, "error", err)
		return ""
	}
	switch {
	case record.AutonomousSystemNumber == 0 && record.AutonomousSystemOrganization == "":
		return ""
	case record.AutonomousSystemOrganization == "":
		return fmt.Sprintf("AS%d", record.AutonomousSystemNumber)
	default:
		return fmt.Sprintf("AS%d %s", record.AutonomousSystemNumber, record.AutonomousSystemOrganization)
	}
}

// Close releases the database.
func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	if err := d.reader.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
