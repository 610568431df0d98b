package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"0", "0", true},
		{"250.50", "250.5", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"1234567890123456789.123456789", "1234567890123456789.123456789", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1,23", "", false},
		{"1.", "", false},
		{".5", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"١٢", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.Error(t, err, "%q", tc.in)
			continue
		}
		require.NoError(t, err, "%q", tc.in)
		assert.Equal(t, tc.out, got.String(), "%q", tc.in)
	}
}

func TestFormatAmount(t *testing.T) {
	d, err := ParseAmount("250.5")
	require.NoError(t, err)
	assert.Equal(t, "₹250.50", FormatAmount(d))
	assert.Equal(t, "-₹250.50", FormatAmount(d.Neg()))
}
