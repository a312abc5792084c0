package sd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceRange(t *testing.T) {
	id := func(v uint16) uint16 { return v }
	items := []uint16{0x0001, 0x0010, 0x0010, 0x0010, 0x0200, 0x0201, 0xFFFE}

	tests := []struct {
		name string
		id   uint16
		want []uint16
	}{
		{"below range", 0x0000, nil},
		{"above range", 0xFFFF, nil},
		{"first", 0x0001, []uint16{0x0001}},
		{"run", 0x0010, []uint16{0x0010, 0x0010, 0x0010}},
		{"probe misses", 0x0201, []uint16{0x0201}},
		{"last", 0xFFFE, []uint16{0xFFFE}},
		{"gap", 0x0100, []uint16{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serviceRange(items, tt.id, id)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceRange_SingleKey(t *testing.T) {
	items := []uint16{7, 7}
	assert.Len(t, serviceRange(items, 7, func(v uint16) uint16 { return v }), 2)
	assert.Empty(t, serviceRange(nil, 7, func(v uint16) uint16 { return v }))
}
