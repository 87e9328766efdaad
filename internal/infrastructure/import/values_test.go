package csvimport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"1234.56":     "1234.56",
		"1.234,56":    "1234.56",
		"1,234.56":    "1234.56",
		"R$ 1.234,56": "1234.56",
		"1234,5":      "1234.5",
		"1.234.567":   "1234567",
		"1,234,567":   "1234567",
		"(10,00)":     "-10",
		"15-":         "-15",
		"100.004":     "100.004",
		"0":           "0",
		"R$ 99,90":    "99.9",
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}

	for _, bad := range []string{"", "abc", "R$", "1,2,3.4.5"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-05", "05/01/2024", "05/01/24", "05-01-2024", "05.01.2024", "2024-01-05T13:45:00Z", "2024-01-05 13:45:00"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "2024-13-01", "31/02/2024", "tomorrow"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}
