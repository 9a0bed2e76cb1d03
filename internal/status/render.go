package status

import (
	"fmt"
	"strings"

	"stackctl/internal/color"

	"github.com/mattn/go-runewidth"
)

// pad right-pads s to width display cells, accounting for wide runes.
func pad(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(color.MutedStyle.Render(pad(h, widths[i])))
		if i < len(header)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Render formats a snapshot for terminal output.
func Render(snap *Snapshot) string {
	var b strings.Builder

	b.WriteString(color.HeaderStyle.Render(fmt.Sprintf("Stack status in namespace %q", snap.Namespace)))
	b.WriteString("\n\n")

	summary := fmt.Sprintf("%d/%d workloads ready", snap.ReadyCount, snap.TotalCount)
	switch {
	case snap.TotalCount == 0:
		b.WriteString(color.WarningStyle.Render("No workloads found"))
	case snap.ReadyCount == snap.TotalCount:
		b.WriteString(color.SuccessStyle.Render(summary))
	default:
		b.WriteString(color.WarningStyle.Render(summary))
	}
	b.WriteString("\n\n")

	if len(snap.Workloads) > 0 {
		rows := make([][]string, 0, len(snap.Workloads))
		for _, w := range snap.Workloads {
			state := "NotReady"
			if w.Healthy() {
				state = "Ready"
			}
			rows = append(rows, []string{w.Name, fmt.Sprintf("%d/%d", w.Ready, w.Desired), state})
		}
		b.WriteString(renderTable([]string{"WORKLOAD", "READY", "STATE"}, rows))
		b.WriteString("\n")
	}

	if len(snap.Services) > 0 {
		rows := make([][]string, 0, len(snap.Services))
		for _, s := range snap.Services {
			rows = append(rows, []string{s.Name, s.Type, s.ClusterIP, strings.Join(s.Ports, ",")})
		}
		b.WriteString(renderTable([]string{"SERVICE", "TYPE", "CLUSTER-IP", "PORTS"}, rows))
		b.WriteString("\n")
	}

	if len(snap.Ingresses) > 0 {
		rows := make([][]string, 0, len(snap.Ingresses))
		for _, ing := range snap.Ingresses {
			rows = append(rows, []string{ing.Name, strings.Join(ing.Hosts, ","), ing.Address})
		}
		b.WriteString(renderTable([]string{"INGRESS", "HOSTS", "ADDRESS"}, rows))
		b.WriteString("\n")
	}

	if len(snap.Events) > 0 {
		b.WriteString(color.MutedStyle.Render("Recent events:"))
		b.WriteString("\n")
		for _, e := range snap.Events {
			line := fmt.Sprintf("  %s  %s  %s: %s", e.Type, e.Object, e.Reason, e.Message)
			if e.Type == "Warning" {
				b.WriteString(color.WarningStyle.Render(line))
			} else {
				b.WriteString(color.MutedStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
