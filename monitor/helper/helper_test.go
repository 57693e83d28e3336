package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundToTwoDecimalPlaces(t *testing.T) {
	testCases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{4.0, 4.0},
		{4.096, 4.1},
		{4.104, 4.1},
		{87.5549, 87.55},
		{-1.005, -1.0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, RoundToTwoDecimalPlaces(tc.in))
	}
}
