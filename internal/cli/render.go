package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kailas-cloud/chino"
)

// maxCell caps the width of a rendered table cell.
const maxCell = 40

// view is command output: a table for humans, raw for --output json.
type view struct {
	header []string
	rows   [][]string
	footer string
	raw    any
}

func (a *app) render(w io.Writer, v view) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v.raw)
	}

	if len(v.header) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader(v.header)
		table.SetAutoWrapText(false)
		for _, row := range v.rows {
			table.Append(row)
		}
		table.Render()
	}
	if v.footer != "" {
		fmt.Fprintln(w, v.footer)
	}
	return nil
}

func searchView(res chino.SearchResult) view {
	switch res.ResultType {
	case chino.Exists, chino.UsernameExists:
		return view{
			footer: strconv.FormatBool(res.Exists),
			raw:    map[string]any{"exists": res.Exists, "total_count": res.TotalCount},
		}
	case chino.OnlyID:
		rows := make([][]string, 0, len(res.IDs))
		for _, id := range res.IDs {
			rows = append(rows, []string{id})
		}
		return view{header: []string{"ID"}, rows: rows, footer: pageFooter(res), raw: res.IDs}
	}

	if len(res.Users) > 0 {
		attrs := make([]map[string]any, 0, len(res.Users))
		for _, u := range res.Users {
			attrs = append(attrs, u.Attributes)
		}
		keys := columns(attrs)
		rows := make([][]string, 0, len(res.Users))
		for _, u := range res.Users {
			rows = append(rows, append([]string{u.ID, u.Username}, cells(u.Attributes, keys)...))
		}
		return view{
			header: append([]string{"ID", "USERNAME"}, keys...),
			rows:   rows,
			footer: pageFooter(res),
			raw:    res.Users,
		}
	}

	contents := make([]map[string]any, 0, len(res.Documents))
	for _, d := range res.Documents {
		contents = append(contents, d.Content)
	}
	keys := columns(contents)
	rows := make([][]string, 0, len(res.Documents))
	for _, d := range res.Documents {
		rows = append(rows, append([]string{d.ID}, cells(d.Content, keys)...))
	}
	raw := res.Documents
	if raw == nil {
		raw = []chino.Document{}
	}
	return view{header: append([]string{"ID"}, keys...), rows: rows, footer: pageFooter(res), raw: raw}
}

func pageFooter(res chino.SearchResult) string {
	if res.Count == 0 {
		return fmt.Sprintf("no results (total %d)", res.TotalCount)
	}
	return fmt.Sprintf("%d-%d of %d", res.Offset+1, res.Offset+res.Count, res.TotalCount)
}

// columns returns the sorted union of keys across rows.
func columns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func cells(values map[string]any, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = cell(values[k])
	}
	return out
}

func cell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	case time.Time:
		s = x.Format(time.RFC3339)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			s = fmt.Sprint(x)
		} else {
			s = string(b)
		}
	}
	if len(s) > maxCell {
		s = s[:maxCell-3] + "..."
	}
	return s
}
