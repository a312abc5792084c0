package discovery

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TXT record keys.
const (
	TXTKeyServiceID    = "sid"
	TXTKeyInstanceID   = "iid"
	TXTKeyMajorVersion = "maj"
	TXTKeyMinorVersion = "min"
)

var (
	ErrMissingRequired = errors.New("missing required TXT record")
	ErrInvalidTXT      = errors.New("invalid TXT record value")
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeServiceTXT creates the TXT records of a mirrored service.
func EncodeServiceTXT(s Service) TXTRecordMap {
	return TXTRecordMap{
		TXTKeyServiceID:    fmt.Sprintf("0x%04x", s.ServiceID),
		TXTKeyInstanceID:   fmt.Sprintf("0x%04x", s.InstanceID),
		TXTKeyMajorVersion: strconv.FormatUint(uint64(s.MajorVersion), 10),
		TXTKeyMinorVersion: strconv.FormatUint(uint64(s.MinorVersion), 10),
	}
}

// DecodeServiceTXT parses the TXT records of a mirrored service. Name and
// Port are left empty.
func DecodeServiceTXT(txt TXTRecordMap) (Service, error) {
	var s Service
	fields := []struct {
		key  string
		bits int
		set  func(uint64)
	}{
		{TXTKeyServiceID, 16, func(v uint64) { s.ServiceID = uint16(v) }},
		{TXTKeyInstanceID, 16, func(v uint64) { s.InstanceID = uint16(v) }},
		{TXTKeyMajorVersion, 8, func(v uint64) { s.MajorVersion = uint8(v) }},
		{TXTKeyMinorVersion, 32, func(v uint64) { s.MinorVersion = uint32(v) }},
	}
	for _, f := range fields {
		str, ok := txt[f.key]
		if !ok {
			return Service{}, fmt.Errorf("%w: %s", ErrMissingRequired, f.key)
		}
		v, err := strconv.ParseUint(str, 0, f.bits)
		if err != nil {
			return Service{}, fmt.Errorf("%w: %s=%q", ErrInvalidTXT, f.key, str)
		}
		f.set(v)
	}
	return s, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}
