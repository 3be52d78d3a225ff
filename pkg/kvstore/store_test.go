package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeBounds(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		start, stop int64
		lo, hi      int
		ok          bool
	}{
		{"all", 4, 0, -1, 0, 4, true},
		{"last", 4, -1, -1, 3, 4, true},
		{"middle", 4, 1, 2, 1, 3, true},
		{"stop past end", 4, 2, 100, 2, 4, true},
		{"start before begin", 4, -100, 1, 0, 2, true},
		{"empty", 0, 0, -1, 0, 0, false},
		{"inverted", 4, 3, 1, 0, 0, false},
		{"start past end", 4, 4, 10, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, ok := RangeBounds(tt.n, tt.start, tt.stop)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.lo, lo)
				assert.Equal(t, tt.hi, hi)
			}
		})
	}
}
