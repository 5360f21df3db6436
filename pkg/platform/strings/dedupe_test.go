package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "blank", raw: "  ", want: nil},
		{name: "single", raw: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "trims and drops empties", raw: " a , ,b,", want: []string{"a", "b"}},
		{name: "first occurrence wins", raw: "b,a,b,a", want: []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.raw, ","))
		})
	}
}

func TestDedupe(t *testing.T) {
	assert.Nil(t, Dedupe(nil))
	assert.Equal(t, []string{"x", "y"}, Dedupe([]string{" x", "y ", "x", ""}))
}
