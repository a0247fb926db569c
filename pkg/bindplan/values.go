package bindplan

import (
	"fmt"
	"net/netip"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WellKnownTypes maps qualified type names to the runtime function converting them from text
var WellKnownTypes = map[string]string{
	"time.Time":                   "ParseTime",
	"time.Duration":               "ParseDuration",
	"github.com/google/uuid.UUID": "ParseUUID",
	"net/netip.Addr":              "ParseAddr",
}

// valueParsers holds the well-known conversions by function name
var valueParsers = map[string]func(string) (any, error){
	"ParseTime":     func(s string) (any, error) { return ParseTime(s) },
	"ParseDuration": func(s string) (any, error) { return ParseDuration(s) },
	"ParseUUID":     func(s string) (any, error) { return ParseUUID(s) },
	"ParseAddr":     func(s string) (any, error) { return ParseAddr(s) },
}

// ParseTime parses an RFC 3339 timestamp or a bare date
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// ParseDuration parses a Go duration string such as "1h30m"
func ParseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

// ParseUUID parses a UUID in any of the forms uuid.Parse accepts
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// ParseAddr parses an IPv4 or IPv6 address
func ParseAddr(s string) (netip.Addr, error) {
	return netip.ParseAddr(s)
}

// primitiveTypes are the primitive type names the binder converts with strconv
var primitiveTypes = map[string]reflect.Type{
	"string":  reflect.TypeOf(""),
	"bool":    reflect.TypeOf(false),
	"int":     reflect.TypeOf(int(0)),
	"int8":    reflect.TypeOf(int8(0)),
	"int16":   reflect.TypeOf(int16(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"uint":    reflect.TypeOf(uint(0)),
	"uint8":   reflect.TypeOf(uint8(0)),
	"uint16":  reflect.TypeOf(uint16(0)),
	"uint32":  reflect.TypeOf(uint32(0)),
	"uint64":  reflect.TypeOf(uint64(0)),
	"float32": reflect.TypeOf(float32(0)),
	"float64": reflect.TypeOf(float64(0)),
	"byte":    reflect.TypeOf(byte(0)),
	"rune":    reflect.TypeOf(rune(0)),
}

// ConvertPrimitive converts text into the named primitive type
func ConvertPrimitive(typeName, text string) (any, error) {
	rt, ok := primitiveTypes[typeName]
	if !ok {
		return nil, fmt.Errorf("unsupported primitive type '%s'", typeName)
	}
	v, err := convertKind(rt, text)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func convertKind(rt reflect.Type, text string) (reflect.Value, error) {
	v := reflect.New(rt).Elem()
	switch rt.Kind() {
	case reflect.String:
		v.SetString(text)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, rt.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(strings.TrimSpace(text), 10, rt.Bits())
		if err != nil {
			return v, err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), rt.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	default:
		return v, fmt.Errorf("unsupported kind %s", rt.Kind())
	}
	return v, nil
}

// ConvertValues converts request text into a value of the named type.
// Collections ("[]int") take every value, scalars take the first. parse, when
// non-nil, replaces the primitive conversion for each element.
func ConvertValues(typeName string, values []string, parse func(string) (any, error)) (any, error) {
	if elem, ok := strings.CutPrefix(typeName, "[]"); ok {
		return convertSlice(elem, values, parse)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no value")
	}
	if parse != nil {
		return parse(values[0])
	}
	return ConvertPrimitive(typeName, values[0])
}

func convertSlice(elem string, values []string, parse func(string) (any, error)) (any, error) {
	items := make([]any, 0, len(values))
	for _, raw := range values {
		var item any
		var err error
		if parse != nil {
			item, err = parse(raw)
		} else {
			item, err = ConvertPrimitive(elem, raw)
		}
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", raw, err)
		}
		items = append(items, item)
	}

	var elemType reflect.Type
	if rt, ok := primitiveTypes[elem]; ok {
		elemType = rt
	} else if len(items) > 0 {
		elemType = reflect.TypeOf(items[0])
	} else {
		return []any{}, nil
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, len(items))
	for _, item := range items {
		slice = reflect.Append(slice, reflect.ValueOf(item))
	}
	return slice.Interface(), nil
}

// pointerTo returns a pointer to a copy of v, used for nullable parameters
func pointerTo(v any) any {
	rv := reflect.ValueOf(v)
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return ptr.Interface()
}
