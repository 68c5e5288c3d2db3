package geo

import (
	"errors"
	"net/netip"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountrySet_Defaults(t *testing.T) {
	s := NewCountrySet(DefaultCountries...)

	for _, c := range []string{"US", "CA", "MX", "EG", "localhost", "us"} {
		assert.True(t, s.Contains(c), c)
	}
	for _, c := range []string{"FR", "", "LOCAL", "XX"} {
		assert.False(t, s.Contains(c), c)
	}
	assert.Equal(t, 5, s.Len())
}

func TestCountrySet_IgnoresBlank(t *testing.T) {
	s := NewCountrySet("", " ", "de")
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("DE"))
	assert.ElementsMatch(t, []string{"DE"}, s.Codes())
}

func TestIsLoopbackLiteral(t *testing.T) {
	assert.True(t, IsLoopbackLiteral("127.0.0.1"))
	assert.True(t, IsLoopbackLiteral("::1"))
	assert.False(t, IsLoopbackLiteral("127.0.0.2"))
	assert.False(t, IsLoopbackLiteral("localhost"))
}

func TestTable_LongestPrefixWins(t *testing.T) {
	tbl, err := NewTable(map[string]string{
		"203.0.113.0/24":   "us",
		"203.0.113.128/25": "FR",
		"2001:db8::/32":    "CA",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	tests := []struct {
		ip   string
		want string
	}{
		{"203.0.113.5", "US"},
		{"203.0.113.200", "FR"},
		{"2001:db8::1", "CA"},
		{"::ffff:203.0.113.5", "US"},
		{"198.51.100.1", ""},
	}
	for _, tt := range tests {
		got, err := tbl.Lookup(netip.MustParseAddr(tt.ip))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.ip)
	}
}

func TestTable_InvalidCIDR(t *testing.T) {
	_, err := NewTable(map[string]string{"not-a-cidr": "US"})
	require.Error(t, err)
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")
	failing := ResolverFunc(func(netip.Addr) (string, error) { return "", boom })
	empty := ResolverFunc(func(netip.Addr) (string, error) { return "", nil })
	mx := ResolverFunc(func(netip.Addr) (string, error) { return "MX", nil })
	addr := netip.MustParseAddr("192.0.2.1")

	code, err := Chain{failing, empty, mx}.Lookup(addr)
	require.NoError(t, err)
	assert.Equal(t, "MX", code)

	code, err = Chain{empty, failing}.Lookup(addr)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, code)

	code, err = Chain{}.Lookup(addr)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestOpenMMDB_Missing(t *testing.T) {
	_, err := OpenMMDB(filepath.Join(t.TempDir(), "missing.mmdb"))
	require.Error(t, err)
}
