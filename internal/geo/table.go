package geo

import (
	"fmt"
	"net/netip"
	"sort"
)

type tableEntry struct {
	prefix  netip.Prefix
	country string
}

// Table is a static CIDR to country resolver. The most specific matching
// prefix wins.
type Table struct {
	entries []tableEntry
}

// NewTable parses a CIDR → country map.
func NewTable(networks map[string]string) (*Table, error) {
	t := &Table{}
	for cidr, country := range networks {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid network %q: %w", cidr, err)
		}
		t.entries = append(t.entries, tableEntry{prefix: p.Masked(), country: normalize(country)})
	}
	sort.Slice(t.entries, func(i, j int) bool {
		return t.entries[i].prefix.Bits() > t.entries[j].prefix.Bits()
	})
	return t, nil
}

func (t *Table) Lookup(addr netip.Addr) (string, error) {
	addr = addr.Unmap()
	for _, e := range t.entries {
		if e.prefix.Contains(addr) {
			return e.country, nil
		}
	}
	return "", nil
}

// Len returns the number of networks in the table.
func (t *Table) Len() int { return len(t.entries) }
