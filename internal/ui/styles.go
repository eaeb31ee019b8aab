// Package ui renders terminal output for lt: colors, filter chips and field
// markers.
package ui

import (
	"fmt"
	"strings"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorMuted  = 245 // medium gray
	colorError  = 203 // red
	colorPromo  = 214 // orange
)

var noColor bool

func paint(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderError returns s in the error (red) color.
func RenderError(s string) string { return paint(colorError, s) }

// RenderPromoted returns s with the promoted badge.
func RenderPromoted(s string) string { return paint(colorPromo, "★ ") + s }

// Chip renders one active filter label as "[label]".
func Chip(label string) string {
	return RenderAccent("[" + label + "]")
}

// Chips renders labels as space-separated chips.
func Chips(labels []string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = Chip(l)
	}
	return strings.Join(parts, " ")
}

// FieldLabel renders a form field label, with an asterisk when mandatory.
func FieldLabel(label string, mandatory bool) string {
	if mandatory {
		return label + RenderError("*")
	}
	return label
}

// Counter renders a character counter such as "12/140", red once over max.
func Counter(n, max int) string {
	s := fmt.Sprintf("%d/%d", n, max)
	if n > max {
		return RenderError(s)
	}
	return RenderMuted(s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
