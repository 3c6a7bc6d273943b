package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2023-03-14":   "2023-03-14",
		"03/14/2023":   "2023-03-14",
		"3/4/2023":     "2023-03-04",
		" 2023-03-14 ": "2023-03-14",
		"":             "",
	}
	for in, want := range cases {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeDate("14.03.2023")
	assert.Error(t, err)
}

func TestParseYMD(t *testing.T) {
	d, err := ParseYMD("2023-03-14")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Day())

	_, err = ParseYMD("03/14/2023")
	assert.Error(t, err)
}
