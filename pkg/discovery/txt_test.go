package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTXT_RoundTrip(t *testing.T) {
	txt := StringsToTXTRecords(TXTRecordsToStrings(EncodeServiceTXT(brake)))
	got, err := DecodeServiceTXT(txt)
	require.NoError(t, err)

	want := brake
	want.Name = ""
	assert.Equal(t, want, got)
}

func TestDecodeServiceTXT_Errors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
		err  error
	}{
		{"missing sid", TXTRecordMap{"iid": "1", "maj": "1", "min": "0"}, ErrMissingRequired},
		{"sid too large", TXTRecordMap{"sid": "0x10000", "iid": "1", "maj": "1", "min": "0"}, ErrInvalidTXT},
		{"major not a number", TXTRecordMap{"sid": "1", "iid": "1", "maj": "one", "min": "0"}, ErrInvalidTXT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeServiceTXT(tt.txt)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}
