package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is a target column type for ConvertDTypes.
type Kind string

// Conversion targets.
const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindDateTime Kind = "datetime"
)

// ConvertSpec names the columns to coerce. DateTime maps a column to its
// format, either strftime ("%Y-%m-%d") or a Go layout ("2006-01-02").
type ConvertSpec struct {
	String   []string
	Int      []string
	Float    []string
	DateTime map[string]string
}

// ConversionError reports a value that could not be coerced.
type ConversionError struct {
	Column string
	Row    int
	Value  any
	Target Kind
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("converting column %q to %s: %v", e.Column, e.Target, e.Err)
	}
	return fmt.Sprintf("converting column %q row %d (%v) to %s: %v", e.Column, e.Row, e.Value, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ConvertDTypes returns a copy of f with the named columns coerced. The
// string, int and float groups are applied in one pass; a column listed in
// several groups takes the last of string, int, float. Datetime parsing runs
// afterwards. f is never modified.
func ConvertDTypes(f *Frame, spec ConvertSpec) (*Frame, error) {
	out := f.Copy()

	targets := DictFromList(spec.String, KindString)
	for k, v := range DictFromList(spec.Int, KindInt) {
		targets[k] = v
	}
	for k, v := range DictFromList(spec.Float, KindFloat) {
		targets[k] = v
	}

	// Validate every column before converting any, so a missing name fails fast.
	for col := range targets {
		if out.Index(col) < 0 {
			return nil, &ConversionError{Column: col, Row: -1, Target: targets[col], Err: fmt.Errorf("column not found")}
		}
	}
	for col := range spec.DateTime {
		if out.Index(col) < 0 {
			return nil, &ConversionError{Column: col, Row: -1, Target: KindDateTime, Err: fmt.Errorf("column not found")}
		}
	}

	for col, kind := range targets {
		if err := out.convertColumn(col, kind, func(v any) (any, error) { return coerce(v, kind) }); err != nil {
			return nil, err
		}
	}

	for col, format := range spec.DateTime {
		parse := timeParser(format)
		if err := out.convertColumn(col, KindDateTime, func(v any) (any, error) { return toTime(v, parse) }); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (f *Frame) convertColumn(col string, kind Kind, fn func(any) (any, error)) error {
	i := f.Index(col)
	values := make([]any, len(f.data[i]))
	for r, v := range f.data[i] {
		converted, err := fn(v)
		if err != nil {
			return &ConversionError{Column: col, Row: r, Value: v, Target: kind, Err: err}
		}
		values[r] = converted
	}
	f.set(i, values)
	return nil
}

func coerce(v any, kind Kind) (any, error) {
	switch kind {
	case KindString:
		return toString(v), nil
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	default:
		return nil, fmt.Errorf("unknown target %q", kind)
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value overflows int64")
		}
		return int64(x), nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
	case nil:
		return 0, fmt.Errorf("cannot convert missing value to int")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// floatToInt truncates toward zero.
func floatToInt(x float64) (int64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("cannot convert non-finite float to int")
	}
	if x >= math.MaxInt64 || x < math.MinInt64 {
		return 0, fmt.Errorf("value overflows int64")
	}
	return int64(x), nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
	case nil:
		return math.NaN(), nil
	default:
		i, err := toInt(v)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}
}

func toTime(v any, parse func(string) (time.Time, error)) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x, nil
	case string:
		return parse(x)
	case []byte:
		return parse(string(x))
	default:
		return parse(toString(x))
	}
}
