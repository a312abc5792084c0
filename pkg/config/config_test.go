package config

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someip-sd/sd-go/pkg/sd"
	"github.com/someip-sd/sd-go/pkg/wire"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "ecu.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Millisecond, cfg.MainFunctionCycle)
	assert.Equal(t, 8, cfg.MaxSubscribers)
	assert.Equal(t, sd.DefaultConfig().MaxSendEntries, cfg.MaxSendEntries)
	require.Len(t, cfg.Instances, 1)

	inst := cfg.Instances[0]
	assert.Equal(t, "eth0", inst.Name)
	assert.Equal(t, "ecu1", inst.HostName)
	assert.Equal(t, sd.ConnID(1), inst.UnicastConn)
	assert.Equal(t, netip.MustParseAddrPort("224.224.224.245:30490"), inst.MulticastAddr)
	assert.Equal(t, 1400, inst.TxBufferSize)
	assert.Equal(t, 50*time.Millisecond, inst.ConnRetryDelay)

	require.Len(t, inst.Servers, 1)
	s := inst.Servers[0]
	assert.Equal(t, uint16(0x1234), s.ServiceID)
	assert.Equal(t, uint32(3), s.MinorVersion)
	assert.True(t, s.AutoAvailable)
	assert.Equal(t, []string{"chassis"}, s.Groups)
	assert.Equal(t, sd.ConnID(10), s.UDPConn)
	assert.Equal(t, sd.NoConn, s.TCPConn)
	assert.Equal(t, []string{"asil=b"}, s.Capabilities)

	want := sd.DefaultServerTiming()
	want.InitialDelayMax = 50 * time.Millisecond
	want.OfferCyclicDelay = 2 * time.Second
	want.TTL = 5
	assert.Equal(t, want, s.Timing)

	require.Len(t, s.EventHandlers, 1)
	h := s.EventHandlers[0]
	assert.Equal(t, uint16(0x10), h.EventgroupID)
	assert.Equal(t, 3, h.MulticastThreshold)
	assert.Equal(t, netip.MustParseAddrPort("239.1.1.1:40001"), h.MulticastAddr)
	assert.Equal(t, sd.RoutingGroupID(100), h.UDPRouting)
	assert.Equal(t, sd.NoRouting, h.TCPRouting)

	require.Len(t, inst.Clients, 1)
	c := inst.Clients[0]
	assert.Equal(t, wire.InstanceAny, c.InstanceID)
	assert.Equal(t, wire.MinorAny, c.MinorVersion)
	assert.Equal(t, 200*time.Millisecond, c.Timing.SubscribeRetryDelay)
	assert.Equal(t, 3, c.Timing.SubscribeRetryMax)
	assert.Equal(t, uint32(3), c.Timing.TTL)

	require.Len(t, c.Eventgroups, 1)
	g := c.Eventgroups[0]
	assert.True(t, g.AutoRequire)
	assert.Equal(t, sd.RoutingGroupID(0x201), g.TCPRouting)
	assert.Equal(t, sd.NoRouting, g.UDPRouting)
	assert.Equal(t, []sd.ConnID{13, 14}, g.MulticastConns)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		line int
	}{
		{"syntax", "instances: [", 0},
		{"bad duration", "main_function_cycle: soon\n", 1},
		{"number too large", "instances:\n  - name: eth0\n    unicast_conn: 70000\n", 3},
		{"no instances", "max_subscribers: 4\n", 0},
		{"missing connections", "instances:\n  - name: eth0\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.line, le.Line)
		})
	}
}

func TestParse_InvalidConfigIsWrapped(t *testing.T) {
	_, err := Parse([]byte("max_subscribers: 4\n"))
	assert.ErrorIs(t, err, sd.ErrInvalidConfig)
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, le.Error(), "missing.yaml")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("main_function_cycle: soon\n"), 0o600))
	_, err = Load(path)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.File)
	assert.Equal(t, 1, le.Line)
	assert.Contains(t, le.Error(), path+":1:")
}
