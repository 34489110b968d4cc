package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/burstplan/internal/ctyconv"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Args are named cty values: the resolved arguments of a tool call, or the
// settings of a tool block.
type Args map[string]cty.Value

// Lookup returns the first non-null value among names.
func (a Args) Lookup(names ...string) (cty.Value, string, bool) {
	for _, n := range names {
		if v, ok := a[n]; ok && !v.IsNull() {
			return v, n, true
		}
	}
	return cty.NilVal, "", false
}

// String returns a required argument rendered as text.
func (a Args) String(names ...string) (string, error) {
	v, _, ok := a.Lookup(names...)
	if !ok {
		return "", fmt.Errorf("missing required argument %q", names[0])
	}
	return ctyconv.Render(v), nil
}

// StringOr returns an optional argument rendered as text.
func (a Args) StringOr(def string, names ...string) string {
	v, _, ok := a.Lookup(names...)
	if !ok {
		return def
	}
	return ctyconv.Render(v)
}

// Int returns an optional whole-number argument.
func (a Args) Int(def int, names ...string) (int, error) {
	v, name, ok := a.Lookup(names...)
	if !ok {
		return def, nil
	}
	var out int
	if err := decode(v, cty.Number, &out); err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return out, nil
}

// Float returns an optional numeric argument.
func (a Args) Float(def float64, names ...string) (float64, error) {
	v, name, ok := a.Lookup(names...)
	if !ok {
		return def, nil
	}
	var out float64
	if err := decode(v, cty.Number, &out); err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return out, nil
}

// Bool returns an optional boolean argument.
func (a Args) Bool(def bool, names ...string) (bool, error) {
	v, name, ok := a.Lookup(names...)
	if !ok {
		return def, nil
	}
	var out bool
	if err := decode(v, cty.Bool, &out); err != nil {
		return false, fmt.Errorf("argument %q: %w", name, err)
	}
	return out, nil
}

// Duration returns an optional duration argument written as "10s", "1m30s".
func (a Args) Duration(def time.Duration, names ...string) (time.Duration, error) {
	v, name, ok := a.Lookup(names...)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(ctyconv.Render(v)))
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return d, nil
}

// Strings returns an optional list argument with every element rendered as
// text. A single non-list value becomes a one-element list.
func (a Args) Strings(names ...string) []string {
	v, _, ok := a.Lookup(names...)
	if !ok {
		return nil
	}
	ty := v.Type()
	if !(ty.IsListType() || ty.IsTupleType() || ty.IsSetType()) || !v.IsKnown() {
		return []string{ctyconv.Render(v)}
	}
	out := make([]string, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		out = append(out, ctyconv.Render(ev))
	}
	return out
}

func decode(v cty.Value, ty cty.Type, target any) error {
	conv, err := convert.Convert(v, ty)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(conv, target)
}
