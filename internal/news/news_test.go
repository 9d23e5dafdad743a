package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountry(t *testing.T) {
	c, err := ParseCountry("us")
	require.NoError(t, err)
	assert.Equal(t, CountryUS, c)

	for _, bad := range []string{"", "US", "gb", " us"} {
		_, err := ParseCountry(bad)
		assert.EqualError(t, err, "Input should be 'us'", bad)
	}
}

func TestNormalizeSourceID(t *testing.T) {
	tests := map[string]string{
		"bbc-news":         "bbc-news",
		"BBC News":         "bbc-news",
		"  The   Verge  ":  "the-verge",
		"Al\tJazeera\nEng": "al-jazeera-eng",
		"":                 "",
		"ÉLYSÉE Quotidien": "élysée-quotidien",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeSourceID(in), in)
	}
}
