package colors

import (
	"bytes"
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\033[31mred\033[0m", "red"},
		{"\033[1;35mbold\033[0m tail", "bold tail"},
	}
	for _, tt := range tests {
		if got := StripANSI(tt.in); got != tt.want {
			t.Errorf("StripANSI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisabledColorsWritePlainText(t *testing.T) {
	prev := Enabled()
	defer SetEnabled(prev)

	SetEnabled(false)
	var buf bytes.Buffer
	RED.Fprintf(&buf, "failed %d", 2)
	if got := buf.String(); got != "failed 2" {
		t.Errorf("Fprintf = %q, want %q", got, "failed 2")
	}
}

func TestEnabledColorsWrapText(t *testing.T) {
	prev := Enabled()
	defer SetEnabled(prev)

	SetEnabled(true)
	got := GREEN.Sprint("ok")
	if got == "ok" || StripANSI(got) != "ok" {
		t.Errorf("Sprint = %q, want colored %q", got, "ok")
	}
}

func TestPad(t *testing.T) {
	if got := Pad(RED.Sprint("ab"), 4); StripANSI(got) != "  ab" {
		t.Errorf("Pad = %q, want %q", StripANSI(got), "  ab")
	}
}
