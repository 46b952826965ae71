package analytics

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("─", utf8.RuneCountInString(title)))
}

func table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = cell + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	sep := make([]string, len(headers))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}

	fmt.Fprintln(w, line(headers))
	fmt.Fprintln(w, strings.Join(sep, "  "))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
}

func countRows(counts []Count) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Key, fmt.Sprint(c.N)})
	}
	return rows
}

// RenderSummary writes the connection overview only.
func RenderSummary(w io.Writer, r Report) {
	fmt.Fprintf(w, "Events              : %d\n", r.Events)
	if !r.First.IsZero() {
		fmt.Fprintf(w, "First               : %s\n", r.First.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "Last                : %s\n", r.Last.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Connections         : %d\n", r.Connections)
	fmt.Fprintf(w, "Good connections    : %d\n", r.GoodConnections)
	fmt.Fprintf(w, "Unique IPs          : %d\n", r.UniqueIPs)
	fmt.Fprintf(w, "Max conns per IP    : %d\n", r.MaxConnectionsPerIP)
	fmt.Fprintf(w, "Avg conns per IP    : %.2f\n", r.AvgConnectionsPerIP)
	fmt.Fprintf(w, "Max ports per IP    : %d\n", r.MaxPortsPerIP)
	fmt.Fprintf(w, "Avg ports per IP    : %.2f\n", r.AvgPortsPerIP)
	fmt.Fprintf(w, "Avg session length  : %s\n", r.AvgSessionDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Max session length  : %s\n", r.MaxSessionDuration.Round(time.Millisecond))
}

// Render writes the full text report.
func Render(w io.Writer, r Report) {
	section(w, "Overview")
	RenderSummary(w, r)

	section(w, "Connections per IP")
	rows := make([][]string, 0, len(r.Distribution))
	for _, b := range r.Distribution {
		label := fmt.Sprintf("%d-%d", b.Min, b.Max-1)
		if b.Max == 0 {
			label = fmt.Sprintf("%d+", b.Min)
		} else if b.Max == b.Min+1 {
			label = fmt.Sprint(b.Min)
		}
		rows = append(rows, []string{label, fmt.Sprint(b.IPs)})
	}
	table(w, []string{"Connections", "IPs"}, rows)

	section(w, "Average good connections by hour (UTC)")
	rows = rows[:0]
	for h, avg := range r.HourlyAverage {
		if avg == 0 {
			continue
		}
		rows = append(rows, []string{fmt.Sprintf("%02d:00", h), fmt.Sprintf("%.2f", avg)})
	}
	table(w, []string{"Hour", "Average"}, rows)

	RenderCredentials(w, r)
	RenderCommands(w, r)
}

func RenderCredentials(w io.Writer, r Report) {
	section(w, "Top source IPs")
	table(w, []string{"IP", "Connections"}, countRows(r.TopIPs))
	section(w, "Top usernames")
	table(w, []string{"Username", "Count"}, countRows(r.TopUsernames))
	section(w, "Top passwords")
	table(w, []string{"Password", "Count"}, countRows(r.TopPasswords))
	section(w, "Top credential pairs")
	table(w, []string{"Username:Password", "Count"}, countRows(r.TopPairs))
}

func RenderCommands(w io.Writer, r Report) {
	section(w, "Top interactive commands")
	table(w, []string{"Command", "Count"}, countRows(r.TopCommands))
	section(w, "Top exec requests")
	table(w, []string{"Exec", "Count"}, countRows(r.TopExecs))
}
