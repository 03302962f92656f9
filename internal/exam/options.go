package exam

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Options maps an option label (A, B, ...) to its text.
type Options map[string]string

const optionLabels = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ParseOptions normalizes a stored options column. A JSON object keeps its
// labels, with non-string values rendered as text and nulls dropped; a JSON
// array or delimited free text is labelled A, B, C in order.
func ParseOptions(raw string) Options {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	var m map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err == nil && m != nil {
		out := Options{}
		for k, v := range m {
			switch v := v.(type) {
			case nil:
			case string:
				out[k] = v
			default:
				out[k] = fmt.Sprint(v)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return label(list)
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		raw = s
	}
	return label(strings.Split(strings.ReplaceAll(raw, "\n", ","), ","))
}

func label(items []string) Options {
	out := Options{}
	i := 0
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if i >= len(optionLabels) {
			break
		}
		out[string(optionLabels[i])] = it
		i++
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// encodeOptions turns an authoring payload (object, array or text) into the
// stored JSON object form. Empty input is stored as NULL.
func encodeOptions(raw json.RawMessage) (*string, error) {
	opts := ParseOptions(string(raw))
	if len(opts) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
