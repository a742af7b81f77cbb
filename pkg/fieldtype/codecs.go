// SPDX-License-Identifier: Apache-2.0

package fieldtype

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// engine date format: UTC, second precision, trailing Z
const timeFormat = "2006-01-02T15:04:05Z"

func encodeString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	// nested objects and arrays have no single string form
	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return "", ErrInvalidValue{Type: stringToken, Value: value}
	default:
		return fmt.Sprint(value), nil
	}
}

func encodeInteger(value any) (string, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		// JSON decoders hand integers over as floats
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return "", ErrInvalidValue{Type: integerToken, Value: value}
		}
		return strconv.FormatInt(int64(f), 10), nil
	case reflect.String:
		str := strings.TrimSpace(rv.String())
		if i, err := strconv.ParseInt(str, 10, 64); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		if u, err := strconv.ParseUint(str, 10, 64); err == nil {
			return strconv.FormatUint(u, 10), nil
		}
		// integral literals in exponent or decimal form ("4.0", "1e3")
		f, err := strconv.ParseFloat(str, 64)
		if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
			return "", ErrInvalidValue{Type: integerToken, Value: value}
		}
		return strconv.FormatInt(int64(f), 10), nil
	default:
		return "", ErrInvalidValue{Type: integerToken, Value: value}
	}
}

func encodeFloat(value any) (string, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil {
			return "", ErrInvalidValue{Type: floatToken, Value: value}
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		return "", ErrInvalidValue{Type: floatToken, Value: value}
	}
}

func encodeTime(value any) (string, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(timeFormat), nil
	case *time.Time:
		if v == nil {
			return "", ErrInvalidValue{Type: timeToken, Value: value}
		}
		return v.UTC().Format(timeFormat), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return "", ErrInvalidValue{Type: timeToken, Value: value}
		}
		return t.UTC().Format(timeFormat), nil
	default:
		return "", ErrInvalidValue{Type: timeToken, Value: value}
	}
}

func encodeBoolean(value any) (string, error) {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return "", ErrInvalidValue{Type: booleanToken, Value: value}
		}
		return strconv.FormatBool(b), nil
	default:
		return "", ErrInvalidValue{Type: booleanToken, Value: value}
	}
}
