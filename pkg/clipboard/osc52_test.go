package clipboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestOSC52(t *testing.T) {
	text := "185.1.2.3:8000:u1:p1"
	encoded := base64.StdEncoding.EncodeToString([]byte(text))

	tests := []struct {
		name   string
		mux    string
		prefix string
	}{
		{name: "Plain", prefix: "\x1b]52;c;"},
		{name: "Tmux", mux: "tmux", prefix: "\x1bPtmux;"},
		{name: "Screen", mux: "screen", prefix: "\x1bP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, NewOSC52(&out, tt.mux).Copy(text))

			assert.True(t, strings.HasPrefix(out.String(), tt.prefix))
			assert.Contains(t, out.String(), encoded)
		})
	}
}

func TestOSC52_WriteFailure(t *testing.T) {
	err := NewOSC52(brokenWriter{}, "").Copy("x")
	assert.Error(t, err)
}
