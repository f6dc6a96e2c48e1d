// Package export writes API listings to tabular files for audits and
// offline diffing of two environments.
package export

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/afero"
)

// Flatten converts a nested record into a flat map with dotted keys:
// {"role": {"name": "viewer"}} becomes {"role.name": "viewer"}. Slices are
// indexed ("groups.0"). Scalars are stringified.
func Flatten(row map[string]any) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, "", row)
	return flat
}

func flattenInto(flat map[string]string, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flattenInto(flat, joinKey(prefix, key), child)
		}
	case []any:
		for i, child := range v {
			flattenInto(flat, joinKey(prefix, strconv.Itoa(i)), child)
		}
	case nil:
		flat[prefix] = ""
	case string:
		flat[prefix] = v
	case bool:
		flat[prefix] = strconv.FormatBool(v)
	case float64:
		flat[prefix] = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		flat[prefix] = fmt.Sprintf("%v", v)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// WriteCSV flattens rows and writes them as CSV. The header is the sorted
// union of every row's flattened keys, so ragged records line up; missing
// values are empty cells.
func WriteCSV(fs afero.Fs, path string, rows []map[string]any) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to write")
	}

	flatRows := make([]map[string]string, len(rows))
	headerSet := make(map[string]bool)
	for i, row := range rows {
		flatRows[i] = Flatten(row)
		for key := range flatRows[i] {
			headerSet[key] = true
		}
	}
	header := make([]string, 0, len(headerSet))
	for key := range headerSet {
		header = append(header, key)
	}
	sort.Strings(header)

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range flatRows {
		for i, key := range header {
			record[i] = row[key]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %q: %w", path, err)
	}
	return nil
}
