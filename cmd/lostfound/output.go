package main

import (
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

const cliTimeLayout = "2006-01-02 15:04"

// renderTable writes rows under header as a text table.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	cols := make([]any, len(header))
	for i, h := range header {
		cols[i] = h
	}
	table.Header(cols...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// parseTime accepts "2006-01-02 15:04" in loc or RFC 3339. Empty is zero.
func parseTime(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(cliTimeLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
