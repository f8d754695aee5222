package telemetry

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Frame is one decoded inbound update: a sparse mapping of variable name to
// raw scalar value. Numbers decode as json.Number so the original text is
// kept; absent and null variables are simply missing.
type Frame map[VariableName]any

var codec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// DecodeError reports a malformed frame. Raw keeps the payload for diagnostics.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v (raw %q)", e.Err, truncate(e.Raw, 120))
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a raw feed message. It never panics; anything that is not a
// JSON object yields a *DecodeError.
func Decode(raw []byte) (f Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, &DecodeError{Raw: string(raw), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	var m map[string]any
	if err := codec.Unmarshal(raw, &m); err != nil {
		return nil, &DecodeError{Raw: string(raw), Err: err}
	}
	if m == nil {
		return nil, &DecodeError{Raw: string(raw), Err: fmt.Errorf("not a JSON object")}
	}
	f = make(Frame, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		f[VariableName(k)] = v
	}
	return f, nil
}

// Encode is the feed-side inverse of Decode.
func Encode(f Frame) ([]byte, error) {
	m := make(map[string]any, len(f))
	for k, v := range f {
		m[string(k)] = v
	}
	return codec.Marshal(m)
}

// Number is a convenience for building frames with numeric values.
func Number(v float64) json.Number {
	b, _ := codec.Marshal(v)
	return json.Number(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
