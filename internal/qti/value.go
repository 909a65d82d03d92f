package qti

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value holds a response or correct-response value: a single string or an
// ordered list of strings.
type Value struct {
	single string
	list   []string
	multi  bool
}

func Single(s string) Value { return Value{single: s} }

func Multiple(vs ...string) Value {
	out := make([]string, len(vs))
	copy(out, vs)
	return Value{list: out, multi: true}
}

func (v Value) IsMultiple() bool { return v.multi }

// Strings returns the values in order; a single value yields a one-element slice.
func (v Value) Strings() []string {
	if v.multi {
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	}
	return []string{v.single}
}

func (v Value) String() string {
	if v.multi {
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return v.single
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.multi {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.single)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	nv, err := ValueFromAny(raw)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}

// ValueFromAny accepts the loosely typed shapes that arrive from JSON bodies
// and CLI flags: strings, numbers, and arrays of either.
func ValueFromAny(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return Single(t), nil
	case []string:
		return Multiple(t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, err := scalarString(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, s)
		}
		return Multiple(out...), nil
	default:
		s, err := scalarString(x)
		if err != nil {
			return Value{}, err
		}
		return Single(s), nil
	}
}

func scalarString(x any) (string, error) {
	switch t := x.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", x)
	}
}
