package main

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// displayStatus renders a queue status token such as "needs_output" as a
// human-readable label ("Needs Output").
func displayStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "Unknown"
	}
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

// displayTimestamp reformats an RFC3339 timestamp for table output, falling
// back to the raw value when it does not parse.
func displayTimestamp(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04:05")
}
