// Package render writes query results for people (tables) and programs
// (JSON).
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vibesql/sqlzoo/internal/query"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q: want table or json", s)
	}
}

// Write renders res to w in format f.
func Write(w io.Writer, f Format, res *query.Result) error {
	switch f {
	case FormatJSON:
		return JSON(w, res)
	case FormatTable, "":
		Table(w, res)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// Table draws res as a bordered table followed by a row count. A result
// without columns, such as the outcome of DDL, prints the count only.
func Table(w io.Writer, res *query.Result) {
	if len(res.Columns) > 0 {
		tw := tablewriter.NewWriter(w)
		tw.SetAutoFormatHeaders(false)
		tw.SetAutoWrapText(false)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetHeader(res.Columns)

		cells := make([]string, len(res.Columns))
		for _, row := range res.Rows {
			for i, v := range row.Values() {
				cells[i] = Value(v)
			}
			tw.Append(cells)
		}
		tw.Render()
	}
	fmt.Fprintf(w, "(%d rows)\n", res.RowCount)
}

type jsonResult struct {
	Columns       []string    `json:"columns"`
	Rows          []query.Row `json:"rows"`
	RowCount      int         `json:"rowCount"`
	ExecutionTime string      `json:"executionTime"`
}

// JSON writes res as an indented object. Row keys follow column order.
func JSON(w io.Writer, res *query.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{
		Columns:       nonNil(res.Columns),
		Rows:          nonNilRows(res.Rows),
		RowCount:      res.RowCount,
		ExecutionTime: res.ExecutionTime.Round(time.Microsecond).String(),
	})
}

// Value formats a single column value for display.
func Value(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRows(r []query.Row) []query.Row {
	if r == nil {
		return []query.Row{}
	}
	return r
}
