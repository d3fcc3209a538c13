package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPercentDiscount(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		pct   int
		want  int64
	}{
		{"twenty percent off whole number", 10000, 20, 8000},
		{"rounds half up", 9999, 10, 8999},   // 8999.1 -> 8999
		{"rounds half up exact", 50, 50, 25}, // 25.0
		{"rounds up at half cent", 99, 50, 50},
		{"zero percent is identity", 1234, 0, 1234},
		{"negative percent is identity", 1234, -5, 1234},
		{"full discount is free", 1234, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyPercentDiscount(tt.cents, tt.pct))
		})
	}
}

func TestPercentOff(t *testing.T) {
	assert.Equal(t, int64(2000), PercentOff(10000, 20))
	assert.Equal(t, int64(0), PercentOff(10000, 0))
	assert.Equal(t, int64(10000), PercentOff(10000, 100))
}
