package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetDefaultCustomLogger should properly set the default logger when
// custom loggers are provided.
func TestSetDefaultCustomLogger(t *testing.T) {
	type customLogger struct {
		Logger // Implement the Logger interface
	}

	prev := Root()
	defer SetDefault(prev)

	customLog := &customLogger{}
	SetDefault(customLog)
	if Root() != customLog {
		t.Error("expected custom logger to be set as default")
	}
}

func TestTerminalHandlerLevels(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&out, LevelInfo, false))

	l.Debug("hidden")
	l.Info("Split function created", "name", "$split$method$_1", "instructions", 12)
	l.With("module", "m").Warn("odd", "key")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "INFO ["))
	assert.Contains(t, lines[0], "name=$split$method$_1 instructions=12")
	assert.Contains(t, lines[1], "module=m key=<nil>")
	assert.Contains(t, lines[1], errorKey)
}

func TestFromLegacyLevel(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "CRIT "},
		{3, "INFO "},
		{5, "TRACE"},
		{9, "TRACE"},
	}
	for _, tt := range tests {
		if got := LevelAlignedString(FromLegacyLevel(tt.in)); got != tt.want {
			t.Errorf("FromLegacyLevel(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
