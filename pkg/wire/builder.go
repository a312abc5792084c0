package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Builder assembles one SD message. Entries are added one at a time and
// rejected with ErrBufferTooSmall once the message would exceed the
// configured size.
type Builder struct {
	header  Header
	maxSize int

	entries    []byte
	options    [][]byte
	optionsLen int
}

// NewBuilder returns a builder for a message of at most maxSize bytes.
func NewBuilder(h Header, maxSize int) *Builder {
	return &Builder{header: h, maxSize: maxSize}
}

// Count returns the number of entries added so far.
func (b *Builder) Count() int {
	return len(b.entries) / EntrySize
}

// NumOptions returns the number of distinct options serialized so far.
func (b *Builder) NumOptions() int {
	return len(b.options)
}

// Size returns the current encoded size.
func (b *Builder) Size() int {
	return MinMessageSize + len(b.entries) + b.optionsLen
}

// Reset clears all entries and sets a new header.
func (b *Builder) Reset(h Header) {
	b.header = h
	b.entries = b.entries[:0]
	b.options = b.options[:0]
	b.optionsLen = 0
}

// Add appends e with the given options. The option run fields of e are
// computed by the builder. On error the builder is unchanged.
func (b *Builder) Add(e Entry, opts []Option) error {
	if e.Type != EntryFindService && e.Type != EntryOfferService &&
		e.Type != EntrySubscribeEventgroup && e.Type != EntrySubscribeEventgroupAck {
		return fmt.Errorf("%w: 0x%02x", ErrUnsupportedEntry, uint8(e.Type))
	}
	if len(opts) > 2*MaxRunLength {
		return fmt.Errorf("%w: %d options on one entry", ErrTooManyOptions, len(opts))
	}

	enc := make([][]byte, len(opts))
	for i, o := range opts {
		raw, err := EncodeOption(o)
		if err != nil {
			return err
		}
		enc[i] = raw
	}

	l, ok := b.layout(enc)
	if !ok {
		return fmt.Errorf("%w: option index space exhausted", ErrBufferTooSmall)
	}
	grow := EntrySize
	for _, raw := range l.fresh {
		grow += len(raw)
	}
	if b.Size()+grow > b.maxSize {
		return fmt.Errorf("%w: %d + %d > %d", ErrBufferTooSmall, b.Size(), grow, b.maxSize)
	}

	e.Index1, e.Num1 = uint8(l.r1.index), uint8(l.r1.num)
	e.Index2, e.Num2 = uint8(l.r2.index), uint8(l.r2.num)
	b.entries = appendEntry(b.entries, e)
	for _, raw := range l.fresh {
		b.options = append(b.options, raw)
		b.optionsLen += len(raw)
	}
	return nil
}

// Bytes returns the encoded message.
func (b *Builder) Bytes() []byte {
	buf := make([]byte, 0, b.Size())
	buf = binary.BigEndian.AppendUint32(buf, MessageID)
	buf = binary.BigEndian.AppendUint32(buf, uint32(b.Size()-8))
	buf = binary.BigEndian.AppendUint16(buf, 0x0000)
	buf = binary.BigEndian.AppendUint16(buf, b.header.SessionID)
	buf = append(buf, ProtocolVersion, InterfaceVersion, MessageTypeNotification, ReturnCodeOK)
	buf = append(buf, byte(b.header.Flags), 0, 0, 0)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b.entries)))
	buf = append(buf, b.entries...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(b.optionsLen))
	for _, raw := range b.options {
		buf = append(buf, raw...)
	}
	return buf
}

type run struct {
	index int
	num   int
}

type layout struct {
	r1, r2 run
	fresh  [][]byte
}

// layout decides how the options of one entry map onto the options
// already in the message. In order of preference: one existing run, two
// existing runs, a tail overlap extended by fresh options, an existing
// prefix or suffix paired with fresh options, and finally all fresh.
func (b *Builder) layout(enc [][]byte) (layout, bool) {
	n := len(enc)
	if n == 0 {
		return layout{}, true
	}
	total := len(b.options)
	fits := func(k int) bool { return k <= MaxRunLength }
	indexOK := func(l layout) bool {
		end := total + len(l.fresh)
		for _, r := range []run{l.r1, l.r2} {
			if r.num > 0 && (r.index > MaxRunIndex || r.index+r.num > end) {
				return false
			}
		}
		return true
	}

	var candidates []layout
	if fits(n) {
		if i := b.findRun(enc); i >= 0 {
			candidates = append(candidates, layout{r1: run{i, n}})
		}
	}
	for k := 1; k < n; k++ {
		if !fits(k) || !fits(n-k) {
			continue
		}
		if i := b.findRun(enc[:k]); i >= 0 {
			if j := b.findRun(enc[k:]); j >= 0 {
				candidates = append(candidates, layout{r1: run{i, k}, r2: run{j, n - k}})
			}
		}
	}
	if fits(n) {
		for k := min(n-1, total); k >= 1; k-- {
			if equalRuns(b.options[total-k:], enc[:k]) {
				candidates = append(candidates, layout{r1: run{total - k, n}, fresh: enc[k:]})
				break
			}
		}
	}
	for k := n - 1; k >= 1; k-- {
		if !fits(k) || !fits(n-k) {
			continue
		}
		if i := b.findRun(enc[:k]); i >= 0 {
			candidates = append(candidates, layout{r1: run{i, k}, r2: run{total, n - k}, fresh: enc[k:]})
			break
		}
	}
	for k := 1; k < n; k++ {
		if !fits(k) || !fits(n-k) {
			continue
		}
		if j := b.findRun(enc[k:]); j >= 0 {
			candidates = append(candidates, layout{r1: run{total, k}, r2: run{j, n - k}, fresh: enc[:k]})
			break
		}
	}
	if fits(n) {
		candidates = append(candidates, layout{r1: run{total, n}, fresh: enc})
	} else {
		candidates = append(candidates, layout{
			r1:    run{total, MaxRunLength},
			r2:    run{total + MaxRunLength, n - MaxRunLength},
			fresh: enc,
		})
	}

	for _, c := range candidates {
		if indexOK(c) {
			return c, true
		}
	}
	return layout{}, false
}

// findRun returns the first index at which seq occurs contiguously in the
// serialized options, or -1.
func (b *Builder) findRun(seq [][]byte) int {
	for i := 0; i+len(seq) <= len(b.options); i++ {
		if equalRuns(b.options[i:i+len(seq)], seq) {
			return i
		}
	}
	return -1
}

func equalRuns(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func appendEntry(buf []byte, e Entry) []byte {
	buf = append(buf, byte(e.Type), e.Index1, e.Index2, e.Num1<<4|e.Num2&0x0F)
	buf = binary.BigEndian.AppendUint16(buf, e.ServiceID)
	buf = binary.BigEndian.AppendUint16(buf, e.InstanceID)
	ttl := min(e.TTL, MaxTTL)
	buf = append(buf, e.MajorVersion, byte(ttl>>16), byte(ttl>>8), byte(ttl))
	if e.Type.IsServiceEntry() {
		return binary.BigEndian.AppendUint32(buf, e.MinorVersion)
	}
	buf = binary.BigEndian.AppendUint16(buf, (e.Reserved&0x0FFF)<<4|e.Counter&0x000F)
	return binary.BigEndian.AppendUint16(buf, e.EventgroupID)
}

// EncodeOption returns the wire form of o including its header.
func EncodeOption(o Option) ([]byte, error) {
	reserved := byte(0)
	if o.Discardable {
		reserved = 0x80
	}

	switch {
	case o.Type.IsEndpoint():
		addr := o.Endpoint.Addr()
		if !addr.IsValid() {
			return nil, fmt.Errorf("%w: %s without address", ErrInvalidEndpoint, o.Type)
		}
		if !o.Type.IsIPv6() {
			addr = addr.Unmap()
			if !addr.Is4() {
				return nil, fmt.Errorf("%w: %s with %s", ErrInvalidEndpoint, o.Type, addr)
			}
		} else if !addr.Is6() || addr.Is4In6() {
			return nil, fmt.Errorf("%w: %s with %s", ErrInvalidEndpoint, o.Type, addr)
		}
		l := o.Type.payloadLen()
		buf := make([]byte, 0, OptionHeaderSize+l)
		buf = binary.BigEndian.AppendUint16(buf, uint16(l))
		buf = append(buf, byte(o.Type), reserved)
		buf = append(buf, addr.AsSlice()...)
		buf = append(buf, 0, byte(o.Proto))
		return binary.BigEndian.AppendUint16(buf, o.Endpoint.Port()), nil

	case o.Type == OptionConfiguration:
		body := []byte{reserved}
		for _, item := range o.Config {
			if err := ValidateConfigItem(item); err != nil {
				return nil, err
			}
			body = append(body, byte(len(item)))
			body = append(body, item...)
		}
		body = append(body, 0)
		if len(body) > 0xFFFF {
			return nil, fmt.Errorf("%w: %d bytes", ErrConfigOptionLength, len(body))
		}
		buf := binary.BigEndian.AppendUint16(nil, uint16(len(body)))
		buf = append(buf, byte(o.Type))
		return append(buf, body...), nil

	case o.Type == OptionLoadBalancing:
		if len(o.Data) != 4 {
			return nil, fmt.Errorf("%w: load balancing payload %d bytes", ErrUnsupportedOption, len(o.Data))
		}
		buf := binary.BigEndian.AppendUint16(nil, uint16(1+len(o.Data)))
		buf = append(buf, byte(o.Type), reserved)
		return append(buf, o.Data...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOption, o.Type)
}

// Encode serializes as many of entries as fit into one message of at most
// maxSize bytes. opts[i] holds the options of entries[i]. It returns the
// message and the number of entries it contains, or ErrBufferTooSmall if
// not even the first entry fits.
func Encode(h Header, entries []Entry, opts [][]Option, maxSize int) ([]byte, int, error) {
	b := NewBuilder(h, maxSize)
	for i, e := range entries {
		var o []Option
		if i < len(opts) {
			o = opts[i]
		}
		if err := b.Add(e, o); err != nil {
			if b.Count() > 0 && errors.Is(err, ErrBufferTooSmall) {
				break
			}
			return nil, 0, err
		}
	}
	return b.Bytes(), b.Count(), nil
}
