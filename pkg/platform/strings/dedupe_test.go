package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactFold(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"blanks dropped", []string{"", "  "}, []string{}},
		{"case-insensitive repeats", []string{" Go ", "React", "go", "GO"}, []string{"Go", "React"}},
		{"inner whitespace", []string{"react \t native", "React Native"}, []string{"react native"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompactFold(tt.in))
		})
	}
}

func TestCollapsePtr(t *testing.T) {
	assert.Nil(t, CollapsePtr(nil))

	in := "  Staff   Engineer "
	out := CollapsePtr(&in)
	assert.Equal(t, "Staff Engineer", *out)
	assert.Equal(t, "  Staff   Engineer ", in)
}
