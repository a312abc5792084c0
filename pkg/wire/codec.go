package wire

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Limits bounds the resources Decode spends on one message.
type Limits struct {
	// MaxOptions is the maximum number of options indexed. A message with
	// more options is malformed.
	MaxOptions int
}

// DefaultLimits returns the default decode limits.
func DefaultLimits() Limits {
	return Limits{MaxOptions: DefaultMaxOptions}
}

// Message is a validated, indexed SD message. It references the buffer
// passed to Decode and must not outlive it.
type Message struct {
	Header Header

	entries []byte
	options []byte
	offsets []int
}

func malformed(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrMalformedMessage, err, fmt.Sprintf(format, args...))
}

// Decode validates data as an SD message and indexes its options.
func Decode(data []byte, limits Limits) (*Message, error) {
	if limits.MaxOptions <= 0 {
		limits.MaxOptions = DefaultMaxOptions
	}
	if len(data) < MinMessageSize {
		return nil, malformed(ErrTruncated, "%d bytes", len(data))
	}

	if id := binary.BigEndian.Uint32(data[0:4]); id != MessageID {
		return nil, malformed(ErrBadHeader, "message id 0x%08x", id)
	}
	length := binary.BigEndian.Uint32(data[4:8])
	if uint64(length)+8 > uint64(len(data)) {
		return nil, malformed(ErrBadLength, "SOME/IP length %d exceeds %d bytes", length, len(data))
	}
	if int(length)+8 < MinMessageSize {
		return nil, malformed(ErrBadLength, "SOME/IP length %d too short", length)
	}
	data = data[:8+int(length)]

	if data[12] != ProtocolVersion {
		return nil, malformed(ErrBadHeader, "protocol version %d", data[12])
	}
	if data[13] != InterfaceVersion {
		return nil, malformed(ErrBadHeader, "interface version %d", data[13])
	}
	if data[14] != MessageTypeNotification {
		return nil, malformed(ErrBadHeader, "message type 0x%02x", data[14])
	}
	if data[15] != ReturnCodeOK {
		return nil, malformed(ErrBadHeader, "return code 0x%02x", data[15])
	}

	msg := &Message{
		Header: Header{
			SessionID: binary.BigEndian.Uint16(data[10:12]),
			Flags:     Flags(data[16]),
		},
	}

	off := SomeIPHeaderSize + 4
	entriesLen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if entriesLen%EntrySize != 0 {
		return nil, malformed(ErrBadLength, "entries length %d", entriesLen)
	}
	if uint64(off)+uint64(entriesLen)+4 > uint64(len(data)) {
		return nil, malformed(ErrBadLength, "entries length %d exceeds message", entriesLen)
	}
	msg.entries = data[off : off+int(entriesLen)]
	off += int(entriesLen)

	optionsLen := binary.BigEndian.Uint32(data[off : off+4])
	off += 4
	if uint64(off)+uint64(optionsLen) > uint64(len(data)) {
		return nil, malformed(ErrBadLength, "options length %d exceeds message", optionsLen)
	}
	msg.options = data[off : off+int(optionsLen)]

	if err := msg.indexOptions(limits.MaxOptions); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *Message) indexOptions(maxOptions int) error {
	for off := 0; off < len(m.options); {
		if len(m.options)-off < OptionHeaderSize+1 {
			return malformed(ErrBadOption, "option header at %d truncated", off)
		}
		if len(m.offsets) >= maxOptions {
			return malformed(ErrTooManyOptions, "more than %d options", maxOptions)
		}
		l := int(binary.BigEndian.Uint16(m.options[off : off+2]))
		t := OptionType(m.options[off+2])
		if l == 0 || off+OptionHeaderSize+l > len(m.options) {
			return malformed(ErrBadOption, "%s at %d with length %d", t, off, l)
		}
		if want := t.payloadLen(); want != 0 && l != want {
			return malformed(ErrBadOption, "%s length %d, want %d", t, l, want)
		}
		m.offsets = append(m.offsets, off)
		off += OptionHeaderSize + l
	}
	return nil
}

// NumEntries returns the number of entries.
func (m *Message) NumEntries() int {
	return len(m.entries) / EntrySize
}

// NumOptions returns the number of indexed options.
func (m *Message) NumOptions() int {
	return len(m.offsets)
}

// Entry decodes entry i.
func (m *Message) Entry(i int) (Entry, error) {
	if i < 0 || i >= m.NumEntries() {
		return Entry{}, fmt.Errorf("%w: entry %d of %d", ErrIndexOutOfRange, i, m.NumEntries())
	}
	return decodeEntry(m.entries[i*EntrySize : (i+1)*EntrySize]), nil
}

func decodeEntry(b []byte) Entry {
	e := Entry{
		Type:         EntryType(b[0]),
		Index1:       b[1],
		Index2:       b[2],
		Num1:         b[3] >> 4,
		Num2:         b[3] & 0x0F,
		ServiceID:    binary.BigEndian.Uint16(b[4:6]),
		InstanceID:   binary.BigEndian.Uint16(b[6:8]),
		MajorVersion: b[8],
		TTL:          uint32(b[9])<<16 | uint32(b[10])<<8 | uint32(b[11]),
	}
	if e.Type.IsServiceEntry() {
		e.MinorVersion = binary.BigEndian.Uint32(b[12:16])
	} else {
		v := binary.BigEndian.Uint16(b[12:14])
		e.Reserved = v >> 4
		e.Counter = v & 0x000F
		e.EventgroupID = binary.BigEndian.Uint16(b[14:16])
	}
	return e
}

// OptionIndices resolves the two option runs of e into option indices.
// Run one comes first.
func (m *Message) OptionIndices(e Entry) ([]int, error) {
	n := int(e.Num1) + int(e.Num2)
	if n == 0 {
		return nil, nil
	}
	idx := make([]int, 0, n)
	for _, r := range [2]struct{ start, num int }{
		{int(e.Index1), int(e.Num1)},
		{int(e.Index2), int(e.Num2)},
	} {
		if r.num == 0 {
			continue
		}
		if r.start+r.num > m.NumOptions() {
			return nil, fmt.Errorf("%w: option run %d+%d of %d", ErrIndexOutOfRange, r.start, r.num, m.NumOptions())
		}
		for i := r.start; i < r.start+r.num; i++ {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// Option decodes option i.
func (m *Message) Option(i int) (Option, error) {
	if i < 0 || i >= m.NumOptions() {
		return Option{}, fmt.Errorf("%w: option %d of %d", ErrIndexOutOfRange, i, m.NumOptions())
	}
	off := m.offsets[i]
	l := int(binary.BigEndian.Uint16(m.options[off : off+2]))
	return decodeOption(OptionType(m.options[off+2]), m.options[off+OptionHeaderSize:off+OptionHeaderSize+l])
}

// decodeOption decodes an option from its payload, starting with the
// reserved byte.
func decodeOption(t OptionType, p []byte) (Option, error) {
	o := Option{Type: t, Discardable: p[0]&0x80 != 0}
	body := p[1:]

	switch {
	case t.IsEndpoint():
		addrLen := 4
		if t.IsIPv6() {
			addrLen = 16
		}
		addr, ok := netip.AddrFromSlice(body[:addrLen])
		if !ok {
			return Option{}, fmt.Errorf("%w: %s address", ErrBadOption, t)
		}
		o.Proto = L4Proto(body[addrLen+1])
		port := binary.BigEndian.Uint16(body[addrLen+2 : addrLen+4])
		o.Endpoint = netip.AddrPortFrom(addr, port)
		if o.Proto != ProtoTCP && o.Proto != ProtoUDP {
			return Option{}, fmt.Errorf("%w: %s protocol 0x%02x", ErrBadOption, t, uint8(o.Proto))
		}

	case t == OptionConfiguration:
		for i := 0; i < len(body); {
			n := int(body[i])
			if n == 0 {
				break
			}
			if i+1+n > len(body) {
				return Option{}, fmt.Errorf("%w: configuration item overruns option", ErrBadOption)
			}
			item := string(body[i+1 : i+1+n])
			if err := ValidateConfigItem(item); err != nil {
				return Option{}, fmt.Errorf("%w: %w", ErrBadOption, err)
			}
			o.Config = append(o.Config, item)
			i += 1 + n
		}

	default:
		o.Data = append([]byte(nil), body...)
	}
	return o, nil
}
