package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omimic12/proxy6-automator/pkg"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		records  []pkg.Record
		expected string
	}{
		{
			name:     "Empty",
			records:  nil,
			expected: "",
		},
		{
			name: "Single",
			records: []pkg.Record{
				{Host: "185.1.2.3", Port: "8000", User: "u1", Pass: "p1"},
			},
			expected: "185.1.2.3:8000:u1:p1",
		},
		{
			name: "Several",
			records: []pkg.Record{
				{Host: "185.1.2.3", Port: "8000", User: "u1", Pass: "p1"},
				{Host: "185.1.2.4", Port: "8001", User: "u2", Pass: "p2"},
			},
			expected: "185.1.2.3:8000:u1:p1\n185.1.2.4:8001:u2:p2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Lines(tt.records))
		})
	}
}

func TestLines_OneLinePerRecord(t *testing.T) {
	records := make([]pkg.Record, 25)
	for i := range records {
		records[i] = pkg.Record{Host: "h", Port: "1", User: "u", Pass: "p"}
	}

	lines := strings.Split(Lines(records), "\n")
	assert.Len(t, lines, len(records))
	for _, line := range lines {
		assert.Len(t, strings.Split(line, ":"), 4)
	}
}
