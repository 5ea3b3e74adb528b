package domain

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes a JSON field that is absent from one set to null.
// Absent: Set=false. Null or "": Set=true, Value=nil.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the key is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		o.Value = nil
		return nil
	}
	o.Value = &s
	return nil
}

// SetTo returns an OptionalString that is present with the given value.
func SetTo(v *string) OptionalString {
	return OptionalString{Set: true, Value: v}
}
