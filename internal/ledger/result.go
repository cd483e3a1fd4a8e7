package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the call-surface envelope shared by every registry. It marshals
// to exactly {"ok": value} or {"err": code}.
type Result[V any] struct {
	value V
	code  ErrorCode
	ok    bool
}

// Ok wraps a successful value.
func Ok[V any](v V) Result[V] {
	return Result[V]{value: v, ok: true}
}

// Fail wraps a failure code.
func Fail[V any](code ErrorCode) Result[V] {
	return Result[V]{code: code}
}

// ResultOf converts a Go return pair into an envelope. Errors that carry no
// ledger code cannot be expressed in the envelope and are returned as-is.
func ResultOf[V any](v V, err error) (Result[V], error) {
	if err == nil {
		return Ok(v), nil
	}
	code, ok := CodeOf(err)
	if !ok {
		return Result[V]{}, err
	}
	return Fail[V](code), nil
}

// IsOk reports whether the envelope carries a value.
func (r Result[V]) IsOk() bool { return r.ok }

// Value returns the wrapped value; the zero value for failures.
func (r Result[V]) Value() V { return r.value }

// Code returns the failure code; 0 for successes.
func (r Result[V]) Code() ErrorCode { return r.code }

type okEnvelope[V any] struct {
	Ok V `json:"ok"`
}

type errEnvelope struct {
	Err ErrorCode `json:"err"`
}

func (r Result[V]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(okEnvelope[V]{Ok: r.value})
	}
	return json.Marshal(errEnvelope{Err: r.code})
}

func (r *Result[V]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["ok"]; ok {
		var value V
		if err := json.Unmarshal(v, &value); err != nil {
			return fmt.Errorf("decode ok value: %w", err)
		}
		*r = Ok(value)
		return nil
	}
	if c, ok := raw["err"]; ok {
		var code ErrorCode
		if err := json.Unmarshal(c, &code); err != nil {
			return fmt.Errorf("decode err code: %w", err)
		}
		*r = Fail[V](code)
		return nil
	}
	return errors.New("result envelope has neither ok nor err")
}
