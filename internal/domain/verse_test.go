package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "ستاروں سے آگے", []string{"ستاروں سے آگے"}},
		{"two", "a\nb", []string{"a", "b"}},
		{"blank lines dropped", "\n a \n\n   \nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"all blank", " \n\n ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.text))
		})
	}
}

func TestPoet_Lifespan(t *testing.T) {
	died := 1938
	assert.Equal(t, "1877–1938", (&Poet{BirthYear: 1877, DeathYear: &died}).Lifespan())
	assert.Equal(t, "1928–", (&Poet{BirthYear: 1928}).Lifespan())
}
