package xmlbind

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

// Coercer converts matched text into a value of a scalar Go type. The
// returned value must have exactly type t.
type Coercer interface {
	Coerce(text string, t reflect.Type) (reflect.Value, error)
}

// CoercerFunc adapts a function to the Coercer interface.
type CoercerFunc func(text string, t reflect.Type) (reflect.Value, error)

// Coerce calls f.
func (f CoercerFunc) Coerce(text string, t reflect.Type) (reflect.Value, error) {
	return f(text, t)
}

// DefaultTimeLayouts are tried in order when coercing into time.Time.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02Z07:00",
	"2006-01-02",
}

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	languageType        = reflect.TypeFor[language.Tag]()
	bytesType           = reflect.TypeFor[[]byte]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// scalarKinds maps the type names accepted in YAML declarations to Go types.
var scalarKinds = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"int":      reflect.TypeFor[int64](),
	"uint":     reflect.TypeFor[uint64](),
	"float":    reflect.TypeFor[float64](),
	"bool":     reflect.TypeFor[bool](),
	"date":     timeType,
	"time":     timeType,
	"duration": durationType,
	"lang":     languageType,
	"bytes":    bytesType,
}

// ScalarType returns the Go type used for a scalar type name of a YAML
// declaration such as "string", "int" or "date".
func ScalarType(name string) (reflect.Type, bool) {
	t, ok := scalarKinds[name]
	return t, ok
}

// DefaultCoercer handles strings, booleans, sized integers and floats,
// time.Time, time.Duration, language.Tag, []byte and any type whose pointer
// implements encoding.TextUnmarshaler.
type DefaultCoercer struct {
	// TimeLayouts overrides DefaultTimeLayouts when set.
	TimeLayouts []string
}

// Coerce implements Coercer.
func (c DefaultCoercer) Coerce(text string, t reflect.Type) (reflect.Value, error) {
	switch t {
	case timeType:
		return c.coerceTime(text)
	case durationType:
		d, err := time.ParseDuration(text)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	case languageType:
		tag, err := language.Parse(text)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(tag), nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		v := reflect.New(t)
		if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, err
		}
		return v.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(text)
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			return reflect.Value{}, fmt.Errorf("unsupported type: %v", t)
		}
		v.SetBytes([]byte(text))
	default:
		return reflect.Value{}, fmt.Errorf("unsupported type: %v", t)
	}
	return v, nil
}

func (c DefaultCoercer) coerceTime(text string) (reflect.Value, error) {
	layouts := c.TimeLayouts
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	var err error
	for _, layout := range layouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, text); err == nil {
			return reflect.ValueOf(parsed), nil
		}
	}
	return reflect.Value{}, err
}

// isScalarType reports whether t (after removing one pointer level) is bound
// from text rather than from a nested schema.
func isScalarType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType, durationType, languageType, bytesType:
		return true
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}
