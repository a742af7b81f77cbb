// SPDX-License-Identifier: Apache-2.0

package json

import (
	stdjson "encoding/json"
	"io"

	"github.com/bytedance/sonic"
)

type (
	Encoder = sonic.Encoder
	Decoder = sonic.Decoder
	// Number is a JSON number literal kept verbatim, so integers beyond
	// float64 precision survive decoding.
	Number = stdjson.Number
)

var api = sonic.ConfigStd

func Unmarshal(b []byte, v any) error {
	return api.Unmarshal(b, v)
}

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func NewDecoder(r io.Reader) Decoder {
	return api.NewDecoder(r)
}

func NewEncoder(w io.Writer) Encoder {
	return api.NewEncoder(w)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return api.Valid(data)
}
