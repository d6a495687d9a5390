// ABOUTME: Terminal formatting helpers shared by the CLI commands.
// ABOUTME: Padding, truncation, and faint text.
package main

import (
	"strings"

	"github.com/fatih/color"
)

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func faint(s string) string {
	return color.New(color.Faint).Sprint(s)
}
