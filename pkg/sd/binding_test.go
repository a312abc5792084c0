package sd

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchQuality(t *testing.T) {
	group := netip.MustParseAddrPort("239.1.1.1:40001")

	tests := []struct {
		pattern string
		want    int
	}{
		{"239.1.1.1:40001", 3},
		{"239.1.1.1:0", 2},
		{"0.0.0.0:40001", 1},
		{"0.0.0.0:0", 0},
		{"239.1.1.2:40001", -1},
		{"239.1.1.1:40002", -1},
		{"0.0.0.0:40002", -1},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchQuality(netip.MustParseAddrPort(tt.pattern), group))
		})
	}

	assert.Equal(t, 0, matchQuality(netip.AddrPort{}, group))
	assert.Equal(t, -1, matchQuality(netip.MustParseAddrPort("239.1.1.1:0"), netip.AddrPort{}))
}
