package geo

import (
	"fmt"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// MMDB resolves countries from a MaxMind country or city database.
type MMDB struct {
	reader *geoip2.Reader
}

// OpenMMDB opens the database at path.
func OpenMMDB(path string) (*MMDB, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening geo database: %w", err)
	}
	return &MMDB{reader: r}, nil
}

func (m *MMDB) Lookup(addr netip.Addr) (string, error) {
	rec, err := m.reader.Country(addr.Unmap().AsSlice())
	if err != nil {
		return "", fmt.Errorf("geo lookup %s: %w", addr, err)
	}
	if rec.Country.IsoCode != "" {
		return rec.Country.IsoCode, nil
	}
	return rec.RegisteredCountry.IsoCode, nil
}

func (m *MMDB) Close() error {
	return m.reader.Close()
}
