package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/alfredjeanlab/lots/internal/model"
)

// splitField splits "key=value" into (key, value, true).
// Returns ("", "", false) if there is no '=' or key is empty.
func splitField(s string) (string, string, bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// rawOrString returns v as JSON: embedded as-is when it looks like a JSON
// literal (object, array, quoted string, boolean, null, or number),
// otherwise quoted as a string.
func rawOrString(v string) json.RawMessage {
	if len(v) > 0 {
		switch v[0] {
		case '{', '[', '"':
			if json.Valid([]byte(v)) {
				return json.RawMessage(v)
			}
		default:
			if v == "true" || v == "false" || v == "null" {
				return json.RawMessage(v)
			}
			if v[0] == '-' || unicode.IsDigit(rune(v[0])) {
				if json.Valid([]byte(v)) {
					return json.RawMessage(v)
				}
			}
		}
	}
	data, _ := json.Marshal(v)
	return data
}

// parseValues converts key=value pairs into field data keyed by field key.
func parseValues(pairs []string) (map[string]json.RawMessage, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]json.RawMessage, len(pairs))
	for _, p := range pairs {
		k, v, ok := splitField(p)
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected key=value", p)
		}
		m[k] = rawOrString(v)
	}
	return m, nil
}

// extendedEdit is one --ext flag: parent:code:key=value.
type extendedEdit struct {
	Parent string
	Code   json.RawMessage
	Key    string
	Data   json.RawMessage
}

func parseExtended(s string) (extendedEdit, error) {
	path, v, ok := splitField(s)
	if !ok {
		return extendedEdit{}, fmt.Errorf("invalid extended field %q: expected parent:code:key=value", s)
	}
	parts := strings.Split(path, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return extendedEdit{}, fmt.Errorf("invalid extended field %q: expected parent:code:key=value", s)
	}
	return extendedEdit{
		Parent: parts[0],
		Code:   rawOrString(parts[1]),
		Key:    parts[2],
		Data:   rawOrString(v),
	}, nil
}

// filterOps maps the operator spelled in a --filter flag to its label.
var filterOps = map[string]string{
	"gte": "≥",
	"lte": "≤",
	"gt":  ">",
	"lt":  "<",
	"eq":  "=",
}

// parseFilter parses "key=value" or "key:op=value" into an active filter
// whose chip label reads "key op value".
func parseFilter(s string) (model.Filter, error) {
	k, v, ok := splitField(s)
	if !ok {
		return model.Filter{}, fmt.Errorf("invalid filter %q: expected key=value or key:op=value", s)
	}
	f := model.Filter{Key: k, Value: v}
	sym := "="
	if key, op, hasOp := strings.Cut(k, ":"); hasOp {
		label, known := filterOps[op]
		if key == "" || !known {
			return model.Filter{}, fmt.Errorf("invalid filter %q: unknown operation %q", s, op)
		}
		f.Key = key
		f.Operation = &op
		sym = label
	}
	label := f.Key
	if v != "" {
		label = f.Key + " " + sym + " " + v
	}
	f.Interpretation = &label
	return f, nil
}

// parseSort parses "key=value" (e.g. "price=asc").
func parseSort(s string) (*model.SortOrder, error) {
	if s == "" {
		return nil, nil
	}
	k, v, ok := splitField(s)
	if !ok || v == "" {
		return nil, fmt.Errorf("invalid sort %q: expected key=value", s)
	}
	return &model.SortOrder{Key: k, Value: v}, nil
}

// describeError renders an error for the terminal, preferring the
// server's human message.
func describeError(err error) string {
	var ve *model.ValidationError
	var se *model.ServerError
	var te *model.TransportError
	switch {
	case errors.As(err, &ve):
		var b strings.Builder
		b.WriteString("the form has errors:")
		for _, fe := range ve.Errors {
			fmt.Fprintf(&b, "\n  %s: %s", fe.Field, fe.Message)
		}
		return b.String()
	case errors.As(err, &se) && se.HumanMessage != "":
		return se.HumanMessage
	case errors.As(err, &te):
		return "cannot reach the server: " + te.Err.Error()
	}
	return err.Error()
}
