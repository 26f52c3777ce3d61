// Package confirm implements the interactive gate in front of destructive
// release tasks: a warning, one line of input, and a yes/no decision taken
// from the first character of the answer.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer decides whether a destructive task may proceed.
type Confirmer interface {
	// Confirm presents the warning and returns true only for an affirmative
	// answer. A read failure (including EOF) counts as declined.
	Confirm(warning string) (bool, error)
}

// Prompt reads a single confirmation line from In and writes the warning and
// prompt to Out. The zero value is not usable; use New.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompt reading answers from in and writing to out.
func New(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm prints the warning followed by a [yN] prompt and reads one line.
// Only an answer whose first character is "y" or "Y" confirms; everything
// else, including an empty line or EOF, declines.
func (p *Prompt) Confirm(warning string) (bool, error) {
	fmt.Fprintln(p.out, warning)
	fmt.Fprint(p.out, "Continue? [yN] ")

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		// EOF with no input: treat as declined, not as a failure.
		if err == io.EOF {
			fmt.Fprintln(p.out)
			return false, nil
		}
		return false, err
	}

	return Affirmative(line), nil
}

// Affirmative reports whether a raw answer line confirms the action:
// first character case-insensitively "y".
func Affirmative(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	return line[0] == 'y' || line[0] == 'Y'
}

// Always is a Confirmer that grants every request without prompting.
// Used for --yes and for watch mode, where the operator consented up front.
type Always struct{}

// Confirm implements Confirmer.
func (Always) Confirm(string) (bool, error) { return true, nil }
