package teardown

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"stackctl/internal/color"
)

// Confirmer is the injected confirmation capability. The terminal
// implementation blocks on operator input; tests inject scripted ones.
type Confirmer interface {
	Confirm(prompt string) bool
}

// TerminalConfirmer prompts on out and reads y/N answers from in.
type TerminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalConfirmer wires a confirmer to the given streams.
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *TerminalConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", color.WarningStyle.Render(prompt))
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// autoConfirmer approves everything; used for --force.
type autoConfirmer struct{}

func (autoConfirmer) Confirm(string) bool { return true }

// AutoApprove returns a Confirmer that approves every prompt.
func AutoApprove() Confirmer { return autoConfirmer{} }
