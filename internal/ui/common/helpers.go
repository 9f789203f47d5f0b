// Package common provides shared utilities for the UI.
package common

import "strings"

// TruncateName truncates a player name to the specified maximum length.
func TruncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return name
}

// HPBar renders current/max as a bar of width cells, red below a quarter.
func HPBar(current, maxHP, width int) string {
	if maxHP <= 0 || width <= 0 {
		return ""
	}
	filled := current * width / maxHP
	if current > 0 && filled == 0 {
		filled = 1
	}
	style := HPFullStyle
	if current*4 < maxHP {
		style = HPLowStyle
	}
	return style.Render(strings.Repeat("█", filled)) + HPEmptyStyle.Render(strings.Repeat("░", width-filled))
}
