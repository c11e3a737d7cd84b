package deploy

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks a Y/n question on out, reading answers from in. Empty
// input counts as yes.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "\n%s [Y/n]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return true
		case "n", "no":
			return false
		default:
			fmt.Fprintln(out, "Please enter 'y' or 'n'")
		}
	}
}
