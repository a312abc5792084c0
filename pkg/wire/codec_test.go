package wire

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testUDP = netip.MustParseAddrPort("192.168.1.10:30501")
	testTCP = netip.MustParseAddrPort("192.168.1.10:30502")
)

func offerEntry() Entry {
	return Entry{
		Type:         EntryOfferService,
		ServiceID:    0x1234,
		InstanceID:   0x0001,
		MajorVersion: 1,
		TTL:          3,
		MinorVersion: 7,
	}
}

func subscribeEntry() Entry {
	return Entry{
		Type:         EntrySubscribeEventgroup,
		ServiceID:    0x1234,
		InstanceID:   0x0001,
		MajorVersion: 1,
		TTL:          TTLInfinite,
		Counter:      2,
		EventgroupID: 0x0010,
	}
}

// singleOptionMessage encodes one offer with one IPv4 endpoint option.
// Layout: entries at 24..40, options length at 40, option at 44..56.
func singleOptionMessage(t *testing.T) []byte {
	t.Helper()
	data, n, err := Encode(Header{SessionID: 5, Flags: FlagUnicast},
		[]Entry{offerEntry()}, [][]Option{{EndpointOption(testUDP, ProtoUDP)}}, 1400)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, data, 56)
	return data
}

func TestEntryReservedFieldRoundTrip(t *testing.T) {
	e := subscribeEntry()
	e.Reserved = 0x012
	e.Counter = 3

	data, _, err := Encode(Header{Flags: FlagUnicast}, []Entry{e}, nil, 1400)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0123), binary.BigEndian.Uint16(data[36:38]))

	msg, err := Decode(data, DefaultLimits())
	require.NoError(t, err)
	got, err := msg.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestDecodeRoundTrip(t *testing.T) {
	entries := []Entry{offerEntry(), subscribeEntry()}
	opts := [][]Option{
		{EndpointOption(testUDP, ProtoUDP), EndpointOption(testTCP, ProtoTCP), ConfigOption("hostname=ecu1", "flag")},
		{EndpointOption(testUDP, ProtoUDP)},
	}

	data, n, err := Encode(Header{SessionID: 0x0102, Flags: FlagReboot | FlagUnicast}, entries, opts, 1400)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	msg, err := Decode(data, DefaultLimits())
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0102), msg.Header.SessionID)
	assert.True(t, msg.Header.Flags.Reboot())
	assert.True(t, msg.Header.Flags.Unicast())
	require.Equal(t, 2, msg.NumEntries())
	assert.Equal(t, 3, msg.NumOptions(), "subscribe endpoint reuses the offer's UDP option")

	offer, err := msg.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, EntryOfferService, offer.Type)
	assert.Equal(t, uint16(0x1234), offer.ServiceID)
	assert.Equal(t, uint32(3), offer.TTL)
	assert.Equal(t, uint32(7), offer.MinorVersion)

	idx, err := msg.OptionIndices(offer)
	require.NoError(t, err)
	require.Len(t, idx, 3)

	udp, err := msg.Option(idx[0])
	require.NoError(t, err)
	assert.Equal(t, OptionIPv4Endpoint, udp.Type)
	assert.Equal(t, testUDP, udp.Endpoint)
	assert.Equal(t, ProtoUDP, udp.Proto)

	tcp, err := msg.Option(idx[1])
	require.NoError(t, err)
	assert.Equal(t, ProtoTCP, tcp.Proto)
	assert.Equal(t, testTCP, tcp.Endpoint)

	cfg, err := msg.Option(idx[2])
	require.NoError(t, err)
	assert.Equal(t, []string{"hostname=ecu1", "flag"}, cfg.Config)

	sub, err := msg.Entry(1)
	require.NoError(t, err)
	assert.Equal(t, EntrySubscribeEventgroup, sub.Type)
	assert.Equal(t, TTLInfinite, sub.TTL)
	assert.Equal(t, uint16(2), sub.Counter)
	assert.Equal(t, uint16(0x0010), sub.EventgroupID)

	subIdx, err := msg.OptionIndices(sub)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, subIdx)
}

func TestDecodeIPv6Endpoint(t *testing.T) {
	ep := netip.MustParseAddrPort("[fd00::1]:30490")
	data, _, err := Encode(Header{Flags: FlagUnicast}, []Entry{offerEntry()},
		[][]Option{{SDEndpointOption(ep)}}, 1400)
	require.NoError(t, err)

	msg, err := Decode(data, DefaultLimits())
	require.NoError(t, err)
	o, err := msg.Option(0)
	require.NoError(t, err)
	assert.Equal(t, OptionIPv6SDEndpoint, o.Type)
	assert.True(t, o.IsSDEndpoint())
	assert.Equal(t, ep, o.Endpoint)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{
			name:   "truncated below minimum",
			mutate: func(b []byte) []byte { return b[:20] },
			want:   ErrTruncated,
		},
		{
			name: "wrong message id",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint32(b[0:4], 0xFFFF8101)
				return b
			},
			want: ErrBadHeader,
		},
		{
			name: "SOME/IP length exceeds payload",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint32(b[4:8], uint32(len(b)))
				return b
			},
			want: ErrBadLength,
		},
		{
			name: "wrong message type",
			mutate: func(b []byte) []byte {
				b[14] = 0x00
				return b
			},
			want: ErrBadHeader,
		},
		{
			name: "entries length not a multiple of 16",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint32(b[20:24], 15)
				return b
			},
			want: ErrBadLength,
		},
		{
			name: "entries length exceeds payload",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint32(b[20:24], 64)
				return b
			},
			want: ErrBadLength,
		},
		{
			name: "options length exceeds payload",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint32(b[40:44], 13)
				return b
			},
			want: ErrBadLength,
		},
		{
			name: "option overruns options array",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint16(b[44:46], 12)
				return b
			},
			want: ErrBadOption,
		},
		{
			name: "IPv4 endpoint with wrong length",
			mutate: func(b []byte) []byte {
				// Shrink the option by one byte and fix up all lengths.
				binary.BigEndian.PutUint16(b[44:46], 8)
				binary.BigEndian.PutUint32(b[40:44], 11)
				binary.BigEndian.PutUint32(b[4:8], uint32(len(b)-9))
				return b[:len(b)-1]
			},
			want: ErrBadOption,
		},
		{
			name: "zero length option",
			mutate: func(b []byte) []byte {
				binary.BigEndian.PutUint16(b[44:46], 0)
				return b
			},
			want: ErrBadOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(singleOptionMessage(t))
			_, err := Decode(data, DefaultLimits())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedMessage)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	data := append(singleOptionMessage(t), 0xAA, 0xBB)
	msg, err := Decode(data, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, 1, msg.NumOptions())
}

func TestDecodeTooManyOptions(t *testing.T) {
	opts := []Option{
		EndpointOption(netip.MustParseAddrPort("10.0.0.1:1"), ProtoUDP),
		EndpointOption(netip.MustParseAddrPort("10.0.0.2:1"), ProtoUDP),
		EndpointOption(netip.MustParseAddrPort("10.0.0.3:1"), ProtoUDP),
	}
	data, _, err := Encode(Header{Flags: FlagUnicast}, []Entry{offerEntry()}, [][]Option{opts}, 1400)
	require.NoError(t, err)

	_, err = Decode(data, Limits{MaxOptions: 2})
	assert.ErrorIs(t, err, ErrTooManyOptions)

	msg, err := Decode(data, Limits{MaxOptions: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, msg.NumOptions())
}

func TestOptionIndicesOutOfRange(t *testing.T) {
	msg, err := Decode(singleOptionMessage(t), DefaultLimits())
	require.NoError(t, err)

	e := offerEntry()
	e.Index1, e.Num1 = 0, 2
	_, err = msg.OptionIndices(e)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = msg.Entry(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = msg.Option(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDecodeRejectsInvalidConfigItem(t *testing.T) {
	// Hand-built configuration option: length 6, type 0x01, reserved,
	// item "=ab" (empty key), terminator.
	opt := []byte{0x00, 0x06, 0x01, 0x00, 0x03, '=', 'a', 'b', 0x00}
	b := NewBuilder(Header{Flags: FlagUnicast}, 1400)
	require.NoError(t, b.Add(offerEntry(), nil))
	data := b.Bytes()

	binary.BigEndian.PutUint32(data[40:44], uint32(len(opt)))
	data = append(data, opt...)
	binary.BigEndian.PutUint32(data[4:8], uint32(len(data)-8))

	// patch the entry to reference the option
	data[24+3] = 0x10

	msg, err := Decode(data, DefaultLimits())
	require.NoError(t, err, "configuration content is checked when the option is read")
	_, err = msg.Option(0)
	assert.ErrorIs(t, err, ErrBadOption)
	assert.ErrorIs(t, err, ErrInvalidConfigItem)
}

func TestValidateConfigItem(t *testing.T) {
	tests := []struct {
		item  string
		valid bool
	}{
		{"hostname=ecu1", true},
		{"flag", true},
		{"key=", true},
		{"key=va=lue", true},
		{"=value", false},
		{"", false},
		{"k\x01y=v", false},
		{"kéy", false},
	}
	for _, tt := range tests {
		err := ValidateConfigItem(tt.item)
		if tt.valid {
			assert.NoError(t, err, tt.item)
		} else {
			assert.ErrorIs(t, err, ErrInvalidConfigItem, tt.item)
		}
	}
}

func TestEntryTypeFormat(t *testing.T) {
	assert.True(t, EntryFindService.IsServiceEntry())
	assert.True(t, EntryOfferService.IsServiceEntry())
	assert.False(t, EntrySubscribeEventgroup.IsServiceEntry())
	assert.False(t, EntrySubscribeEventgroupAck.IsServiceEntry())
	assert.Equal(t, "SUBSCRIBE_EVENTGROUP_ACK", EntrySubscribeEventgroupAck.String())
	assert.Equal(t, "UNKNOWN", EntryType(0x03).String())
}

func TestReason(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, DefaultLimits())
	assert.Equal(t, "truncated", Reason(err))
	assert.Equal(t, "none", Reason(nil))
	assert.Equal(t, "not_unicast", Reason(fmt.Errorf("%w: %w", ErrMalformedMessage, ErrNotUnicast)))
}
