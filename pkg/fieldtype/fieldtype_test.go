// SPDX-License-Identifier: Apache-2.0

package fieldtype

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuffix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fieldTyp Type
		multiple bool

		wantSuffix string
		wantErr    error
	}{
		{name: "string", fieldTyp: StringType, wantSuffix: "_s"},
		{name: "string multiple", fieldTyp: StringType, multiple: true, wantSuffix: "_sm"},
		{name: "text", fieldTyp: TextType, wantSuffix: "_text"},
		{name: "text multiple", fieldTyp: TextType, multiple: true, wantSuffix: "_text"},
		{name: "integer", fieldTyp: IntegerType, wantSuffix: "_i"},
		{name: "integer multiple", fieldTyp: IntegerType, multiple: true, wantSuffix: "_im"},
		{name: "float", fieldTyp: FloatType, wantSuffix: "_f"},
		{name: "float multiple", fieldTyp: FloatType, multiple: true, wantSuffix: "_fm"},
		{name: "time", fieldTyp: TimeType, wantSuffix: "_d"},
		{name: "time multiple", fieldTyp: TimeType, multiple: true, wantSuffix: "_dm"},
		{name: "boolean", fieldTyp: BooleanType, wantSuffix: "_b"},
		{name: "boolean multiple", fieldTyp: BooleanType, multiple: true, wantSuffix: "_bm"},
		{name: "error - unknown type", fieldTyp: Type(1000), wantErr: ErrUnknownType{Input: "1000"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			suffix, err := Suffix(tc.fieldTyp, tc.multiple)
			require.Equal(t, tc.wantErr, err)
			require.Equal(t, tc.wantSuffix, suffix)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string

		wantType Type
		wantErr  error
	}{
		{token: "string", wantType: StringType},
		{token: "text", wantType: TextType},
		{token: "integer", wantType: IntegerType},
		{token: "float", wantType: FloatType},
		{token: "time", wantType: TimeType},
		{token: "boolean", wantType: BooleanType},
		{token: "bogus", wantErr: ErrUnknownType{Input: "bogus"}},
		{token: "", wantErr: ErrUnknownType{Input: ""}},
	}

	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			t.Parallel()

			typ, err := Parse(tc.token)
			require.Equal(t, tc.wantErr, err)
			require.Equal(t, tc.wantType, typ)
			if err == nil {
				require.Equal(t, tc.token, typ.String())
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	type customInt int32

	edt := time.FixedZone("EDT", -4*60*60)
	publishedAt := time.Date(1983, time.July, 8, 5, 0, 0, 0, edt)

	tests := []struct {
		name     string
		fieldTyp Type
		value    any

		wantValue string
		wantErr   error
	}{
		{name: "string", fieldTyp: StringType, value: "A Title", wantValue: "A Title"},
		{name: "string from bytes", fieldTyp: StringType, value: []byte("bytes"), wantValue: "bytes"},
		{name: "string from number", fieldTyp: StringType, value: 42, wantValue: "42"},
		{name: "text", fieldTyp: TextType, value: "A Post", wantValue: "A Post"},
		{name: "integer", fieldTyp: IntegerType, value: 4, wantValue: "4"},
		{name: "integer negative int64", fieldTyp: IntegerType, value: int64(-12), wantValue: "-12"},
		{name: "integer custom kind", fieldTyp: IntegerType, value: customInt(7), wantValue: "7"},
		{name: "integer uint", fieldTyp: IntegerType, value: uint8(255), wantValue: "255"},
		{name: "integer integral float", fieldTyp: IntegerType, value: float64(14), wantValue: "14"},
		{name: "integer string", fieldTyp: IntegerType, value: " 3 ", wantValue: "3"},
		{name: "integer string beyond float precision", fieldTyp: IntegerType, value: "9007199254740993", wantValue: "9007199254740993"},
		{name: "integer string max uint64", fieldTyp: IntegerType, value: "18446744073709551615", wantValue: "18446744073709551615"},
		{name: "integer string decimal form", fieldTyp: IntegerType, value: "4.0", wantValue: "4"},
		{name: "integer string exponent form", fieldTyp: IntegerType, value: "1e3", wantValue: "1000"},
		{name: "float", fieldTyp: FloatType, value: 2.23, wantValue: "2.23"},
		{name: "float32", fieldTyp: FloatType, value: float32(0.1), wantValue: "0.1"},
		{name: "float from int", fieldTyp: FloatType, value: 3, wantValue: "3"},
		{name: "float large", fieldTyp: FloatType, value: 1234567.5, wantValue: "1234567.5"},
		{name: "time offset normalised to utc", fieldTyp: TimeType, value: publishedAt, wantValue: "1983-07-08T09:00:00Z"},
		{name: "time pointer", fieldTyp: TimeType, value: &publishedAt, wantValue: "1983-07-08T09:00:00Z"},
		{name: "time truncates sub-second", fieldTyp: TimeType, value: publishedAt.Add(500 * time.Millisecond), wantValue: "1983-07-08T09:00:00Z"},
		{name: "time rfc3339 string", fieldTyp: TimeType, value: "1983-07-08T05:00:00-04:00", wantValue: "1983-07-08T09:00:00Z"},
		{name: "boolean", fieldTyp: BooleanType, value: true, wantValue: "true"},
		{name: "boolean string", fieldTyp: BooleanType, value: "false", wantValue: "false"},

		{name: "error - integer fractional float", fieldTyp: IntegerType, value: 2.5, wantErr: ErrInvalidValue{Type: "integer", Value: 2.5}},
		{name: "error - integer fractional string", fieldTyp: IntegerType, value: "2.5", wantErr: ErrInvalidValue{Type: "integer", Value: "2.5"}},
		{name: "error - string from object", fieldTyp: StringType, value: map[string]any{"name": "Mat"}, wantErr: ErrInvalidValue{Type: "string", Value: map[string]any{"name": "Mat"}}},
		{name: "error - string from array", fieldTyp: StringType, value: []any{"a"}, wantErr: ErrInvalidValue{Type: "string", Value: []any{"a"}}},
		{name: "error - text from struct", fieldTyp: TextType, value: struct{ Name string }{Name: "Mat"}, wantErr: ErrInvalidValue{Type: "string", Value: struct{ Name string }{Name: "Mat"}}},
		{name: "error - integer not a number", fieldTyp: IntegerType, value: "four", wantErr: ErrInvalidValue{Type: "integer", Value: "four"}},
		{name: "error - float bool", fieldTyp: FloatType, value: true, wantErr: ErrInvalidValue{Type: "float", Value: true}},
		{name: "error - time invalid string", fieldTyp: TimeType, value: "yesterday", wantErr: ErrInvalidValue{Type: "time", Value: "yesterday"}},
		{name: "error - boolean number", fieldTyp: BooleanType, value: 1, wantErr: ErrInvalidValue{Type: "boolean", Value: 1}},
		{name: "error - unknown type", fieldTyp: Type(999), value: "a", wantErr: ErrUnknownType{Input: "999"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			value, err := Encode(tc.fieldTyp, tc.value)
			require.Equal(t, tc.wantErr, err)
			require.Equal(t, tc.wantValue, value)
		})
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	upper := func(value any) (string, error) {
		s, ok := value.(string)
		if !ok {
			return "", errors.New("not a string")
		}
		return s + "!", nil
	}

	typ, err := Register("shout", "_shout", "_shoutm", upper)
	require.NoError(t, err)

	parsed, err := Parse("shout")
	require.NoError(t, err)
	require.Equal(t, typ, parsed)

	suffix, err := Suffix(typ, true)
	require.NoError(t, err)
	require.Equal(t, "_shoutm", suffix)

	encoded, err := Encode(typ, "hey")
	require.NoError(t, err)
	require.Equal(t, "hey!", encoded)

	_, err = Register("shout", "_x", "_xm", upper)
	require.Error(t, err)

	_, err = Register("string", "_x", "_xm", upper)
	require.Error(t, err)

	_, err = Register("nocodec", "_x", "_xm", nil)
	require.Error(t, err)
}

func TestIsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := Parse("bogus")
	require.True(t, IsUnknownType(err))
	require.False(t, IsUnknownType(errors.New("oh noes")))
}
