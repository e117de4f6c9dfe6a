package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
)

var errOut io.Writer = os.Stderr

// statusLabel mirrors the launcher's status line.
func statusLabel(running bool, t lib.Transition) string {
	switch {
	case t == lib.TransitionStarting:
		return "INITIALIZING..."
	case t == lib.TransitionStopping:
		return "SHUTTING DOWN..."
	case running:
		return "SYSTEM ONLINE"
	default:
		return "SYSTEM OFFLINE"
	}
}

func printEvent(w io.Writer, e lib.Event) {
	switch {
	case e.Log != nil:
		fmt.Fprintf(w, "[%s] %-7s %s\n", e.Log.Timestamp, strings.ToUpper(string(e.Log.Level)), strings.ToUpper(e.Log.Message))
	case e.Status != nil:
		fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", len(lib.TimestampLayout)+2), statusLabel(e.Status.Running, e.Status.Transition))
	}
}

// printTable renders rows under headers in a boxed, left-aligned table.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = maxInt(widths[i], len(cell))
		}
	}

	seps := make([]string, len(widths))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	sep := "+-" + strings.Join(seps, "-+-") + "-+\n"

	line := func(cells []string) {
		padded := make([]string, len(widths))
		for i, width := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = pad(cell, width)
		}
		fmt.Fprint(w, "| "+strings.Join(padded, " | ")+" |\n")
	}

	fmt.Fprint(w, sep)
	line(headers)
	fmt.Fprint(w, sep)
	for _, row := range rows {
		line(row)
	}
	fmt.Fprint(w, sep)
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
