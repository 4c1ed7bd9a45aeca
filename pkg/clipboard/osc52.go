package clipboard

import (
	"io"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/pkg/errors"
)

// OSC52 asks the terminal to place text on the system clipboard. It works
// over SSH and inside tmux or screen when the terminal allows it.
type OSC52 struct {
	mu  sync.Mutex
	out io.Writer
	mux string
}

// NewOSC52 writes sequences to out. mux is "tmux", "screen" or empty.
func NewOSC52(out io.Writer, mux string) *OSC52 {
	return &OSC52{out: out, mux: mux}
}

func (c *OSC52) Copy(text string) error {
	seq := osc52.New(text)
	switch c.mux {
	case "tmux":
		seq = seq.Tmux()
	case "screen":
		seq = seq.Screen()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := seq.WriteTo(c.out)
	return errors.Wrap(err, "failed to write clipboard sequence")
}
