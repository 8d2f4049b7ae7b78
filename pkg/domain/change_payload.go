package domain

import "encoding/json"

// ChangePayload wraps a JSON snapshot of a change's before or after state so
// rules can never alias transaction state.
type ChangePayload struct {
	defined bool
	raw     json.RawMessage
}

// NewChangePayload builds a payload wrapper from raw JSON. The bytes are cloned.
func NewChangePayload(raw json.RawMessage) ChangePayload {
	payload := ChangePayload{defined: true}
	if raw != nil {
		payload.raw = append(json.RawMessage(nil), raw...)
	}
	return payload
}

// PayloadOf marshals a rule or item into a ChangePayload. Both are plain
// value types, so a marshal failure is a programming error and yields an
// undefined payload.
func PayloadOf[T EncodingRule | LostItem](value T) ChangePayload {
	raw, err := json.Marshal(value)
	if err != nil {
		return ChangePayload{}
	}
	return NewChangePayload(raw)
}

// Defined reports whether the payload has been initialized.
func (p ChangePayload) Defined() bool {
	return p.defined
}

// Raw returns a cloned copy of the underlying JSON bytes.
func (p ChangePayload) Raw() json.RawMessage {
	if !p.defined || len(p.raw) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), p.raw...)
}

// DecodePayload decodes the payload into T. It returns false when the payload
// is undefined, empty, or not decodable.
func DecodePayload[T any](payload ChangePayload) (T, bool) {
	var out T
	if !payload.defined || len(payload.raw) == 0 {
		return out, false
	}
	if err := json.Unmarshal(payload.raw, &out); err != nil {
		return out, false
	}
	return out, true
}
