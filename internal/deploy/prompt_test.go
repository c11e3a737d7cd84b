package deploy

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty defaults to yes", input: "\n", want: true},
		{name: "explicit yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "garbage then no", input: "maybe\nn\n", want: false},
		{name: "eof counts as no", input: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out, "Proceed?")
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[Y/n]")
		})
	}
}
