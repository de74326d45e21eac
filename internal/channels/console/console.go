// Package console is the fallback delivery channel: reminders are
// printed to stdout. Useful for local runs without a telegram token.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
)

type Deliverer struct {
	out io.Writer
}

func New() *Deliverer {
	return &Deliverer{out: os.Stdout}
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(out io.Writer) *Deliverer {
	return &Deliverer{out: out}
}

func (d *Deliverer) Name() string { return "console" }

func (d *Deliverer) Deliver(_ context.Context, chatID, text string) error {
	_, err := fmt.Fprintf(d.out, "[%s] %s\n", chatID, text)
	return err
}
