package export

import "fmt"

// Dataset defines tabular export content. Rows are keyed by header name and
// missing keys render as empty cells.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record returns row i ordered by Headers.
func (d Dataset) Record(i int) []string {
	record := make([]string, len(d.Headers))
	for col, header := range d.Headers {
		record[col] = d.Rows[i][header]
	}
	return record
}

func (d Dataset) validate(kind string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	seen := make(map[string]struct{}, len(d.Headers))
	for _, header := range d.Headers {
		if _, dup := seen[header]; dup {
			return fmt.Errorf("%s header %q is duplicated", kind, header)
		}
		seen[header] = struct{}{}
	}
	return nil
}
