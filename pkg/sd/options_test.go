package sd

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someip-sd/sd-go/pkg/wire"
)

func testInstance(prefix int) *instance {
	return &instance{
		local:     netip.MustParseAddrPort("192.168.1.10:30490"),
		prefixLen: prefix,
	}
}

func TestInSubnet(t *testing.T) {
	e := &Engine{}
	inst := testInstance(24)

	assert.True(t, e.inSubnet(inst, netip.MustParseAddrPort("192.168.1.200:1")))
	assert.False(t, e.inSubnet(inst, netip.MustParseAddrPort("192.168.2.1:1")))
	assert.False(t, e.inSubnet(inst, netip.MustParseAddrPort("[fe80::1]:1")))
	assert.True(t, e.inSubnet(inst, netip.MustParseAddrPort("[::ffff:192.168.1.7]:1")))
	assert.True(t, e.inSubnet(testInstance(0), netip.MustParseAddrPort("10.0.0.1:1")))
}

func TestClassify(t *testing.T) {
	e := &Engine{}
	inst := testInstance(24)
	udp := netip.MustParseAddrPort("192.168.1.20:50000")
	tcp := netip.MustParseAddrPort("192.168.1.20:50001")
	far := netip.MustParseAddrPort("10.0.0.1:50000")
	group := netip.MustParseAddrPort("239.1.1.1:40001")
	subscribeRules := optionRules{unicast: true, needUDP: true}

	t.Run("resolves endpoints and config", func(t *testing.T) {
		set, err := e.classify(inst, []wire.Option{
			wire.EndpointOption(udp, wire.ProtoUDP),
			wire.EndpointOption(tcp, wire.ProtoTCP),
			wire.ConfigOption("a=1"),
			wire.SDEndpointOption(netip.MustParseAddrPort("192.168.1.20:30490")),
		}, optionRules{unicast: true})
		require.NoError(t, err)
		assert.Equal(t, udp, set.udp)
		assert.Equal(t, tcp, set.tcp)
		assert.Equal(t, []string{"a=1"}, set.config)
	})

	t.Run("endpoint not allowed", func(t *testing.T) {
		_, err := e.classify(inst, []wire.Option{wire.EndpointOption(udp, wire.ProtoUDP)}, optionRules{})
		assert.ErrorIs(t, err, ErrRejectedOptions)
	})

	t.Run("duplicate endpoint", func(t *testing.T) {
		_, err := e.classify(inst, []wire.Option{
			wire.EndpointOption(udp, wire.ProtoUDP),
			wire.EndpointOption(udp, wire.ProtoUDP),
		}, subscribeRules)
		assert.ErrorIs(t, err, ErrRejectedOptions)
	})

	t.Run("needed endpoint outside subnet", func(t *testing.T) {
		_, err := e.classify(inst, []wire.Option{wire.EndpointOption(far, wire.ProtoUDP)}, subscribeRules)
		assert.ErrorIs(t, err, ErrRejectedOptions)
	})

	t.Run("unneeded endpoint outside subnet ignored", func(t *testing.T) {
		set, err := e.classify(inst, []wire.Option{wire.EndpointOption(far, wire.ProtoTCP)}, subscribeRules)
		require.NoError(t, err)
		assert.False(t, set.tcp.IsValid())
	})

	t.Run("multicast", func(t *testing.T) {
		set, err := e.classify(inst, []wire.Option{wire.MulticastOption(group)}, optionRules{multicast: true})
		require.NoError(t, err)
		assert.Equal(t, group, set.multicast)

		_, err = e.classify(inst, []wire.Option{wire.MulticastOption(group)}, subscribeRules)
		assert.ErrorIs(t, err, ErrRejectedOptions)
	})

	t.Run("unknown options", func(t *testing.T) {
		_, err := e.classify(inst, []wire.Option{{Type: wire.OptionType(0x77), Discardable: true}}, optionRules{})
		assert.NoError(t, err)
		_, err = e.classify(inst, []wire.Option{{Type: wire.OptionType(0x77)}}, optionRules{})
		assert.ErrorIs(t, err, ErrRejectedOptions)
	})
}
