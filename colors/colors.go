// Package colors provides named terminal colors for compiler output.
package colors

import (
	"github.com/fatih/color"
)

// COLOR is a named set of terminal attributes.
type COLOR struct {
	attrs []color.Attribute
}

var (
	RED          = COLOR{[]color.Attribute{color.FgRed}}
	GREEN        = COLOR{[]color.Attribute{color.FgGreen}}
	LIGHT_GREEN  = COLOR{[]color.Attribute{color.FgHiGreen}}
	YELLOW       = COLOR{[]color.Attribute{color.FgYellow}}
	LIGHT_YELLOW = COLOR{[]color.Attribute{color.FgHiYellow}}
	ORANGE       = COLOR{[]color.Attribute{color.FgHiRed}}
	BLUE         = COLOR{[]color.Attribute{color.FgBlue}}
	PURPLE       = COLOR{[]color.Attribute{color.FgMagenta, color.Bold}}
	CYAN         = COLOR{[]color.Attribute{color.FgCyan}}
	GREY         = COLOR{[]color.Attribute{color.FgHiBlack}}
	WHITE        = COLOR{[]color.Attribute{color.FgWhite}}
	BOLD         = COLOR{[]color.Attribute{color.Bold}}
)

func (c COLOR) color() *color.Color {
	return color.New(c.attrs...)
}

// SetEnabled forces colored output on or off for every COLOR.
func SetEnabled(enabled bool) {
	color.NoColor = !enabled
}

// Enabled reports whether colored output is on.
func Enabled() bool {
	return !color.NoColor
}
