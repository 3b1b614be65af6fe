package paper

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (8MB per line).
// Dataset exports sometimes carry long abstracts or inline embeddings.
const MaxJSONLLineCapacity = 8 * 1024 * 1024

// FlexibleString can unmarshal from a string, number, bool, null, or an
// array of strings (joined with AuthorSeparator).
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	// Handle null
	if string(data) == "null" {
		*f = ""
		return nil
	}

	// Try string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	// Try number
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexibleString(fmt.Sprint(b))
		return nil
	}

	// Lists of names, as in author columns
	var list []FlexibleString
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item != "" {
				parts = append(parts, string(item))
			}
		}
		*f = FlexibleString(strings.Join(parts, AuthorSeparator))
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// readJSONL reads one JSON object per line. Columns are the union of keys
// in first-seen order; rows missing a key get "".
func readJSONL(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxJSONLLineCapacity)

	t := &Table{}
	columns := make(map[string]int)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue // Skip empty lines
		}

		keys, values, err := decodeObject(line)
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}

		row := make([]string, len(t.Header))
		for i, key := range keys {
			idx, ok := columns[key]
			if !ok {
				idx = len(t.Header)
				columns[key] = idx
				t.Header = append(t.Header, key)
				for r := range t.Rows {
					t.Rows[r] = append(t.Rows[r], "")
				}
				row = append(row, "")
			}
			row[idx] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}

	return t, nil
}

// decodeObject decodes a single JSON object keeping its key order.
func decodeObject(line []byte) ([]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var keys, values []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("decoding %q: %w", key, err)
		}

		var v FlexibleString
		if err := json.Unmarshal(raw, &v); err != nil {
			// Nested objects are kept as their JSON text
			v = FlexibleString(raw)
		}

		keys = append(keys, key)
		values = append(values, v.String())
	}

	return keys, values, nil
}

// writeJSONL writes one object per row with keys in header order. The
// authors column is written as a JSON array.
func writeJSONL(w io.Writer, t *Table) error {
	for r, row := range t.Rows {
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, key := range t.Header {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(key)
			buf.Write(k)
			buf.WriteByte(':')

			var v []byte
			var err error
			if key == ColumnAuthors {
				authors := SplitAuthors(row[i])
				if authors == nil {
					authors = []string{}
				}
				v, err = json.Marshal(authors)
			} else {
				v, err = json.Marshal(row[i])
			}
			if err != nil {
				return fmt.Errorf("encoding row %d: %w", r+1, err)
			}
			buf.Write(v)
		}
		buf.WriteString("}\n")

		if _, err := w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}
	return nil
}
