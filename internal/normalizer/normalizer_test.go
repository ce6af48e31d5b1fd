package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrim(t *testing.T) {
	assert.Equal(t, "Kozhikode Beach", Trim("  Kozhikode \t Beach  "))
	assert.Equal(t, "", Trim("   "))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Thrissur ", "thrissur"},
		{"MALAPPURAM", "malappuram"},
		{"Kōchi", "kochi"},
		{"São  Tomé", "sao tome"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_TransliteratesNonLatin(t *testing.T) {
	out := Normalize("मुंबई")
	assert.NotEmpty(t, out)
	assert.True(t, isASCII(out))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"govt", "college", "kottayam"}, Tokens("govt of college kottayam college", 2))
	assert.Empty(t, Tokens("a an of", 2))
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"thrissur", "trichur"}, Words("thrissur/trichur"))
	assert.Equal(t, []string{"new", "delhi"}, Words(" new  delhi "))
}
