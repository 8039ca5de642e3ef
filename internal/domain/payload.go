package domain

import (
	"bytes"
	"encoding/json"
)

// PayloadField is one converted form value. Value is an int, a float64 or
// the original string when it did not look numeric.
type PayloadField struct {
	Key   string
	Value interface{}
}

// BodyPayload is the body endpoint request, encoded as a JSON object whose
// keys follow form order.
type BodyPayload []PayloadField

// Lookup returns the value for key.
func (p BodyPayload) Lookup(key string) (interface{}, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the payload as an object in field order.
func (p BodyPayload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MindRequest is the mind endpoint request.
type MindRequest struct {
	Text string `json:"text"`
}
