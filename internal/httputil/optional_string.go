package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes a JSON field that was absent from one that was
// an explicit null, which a plain *string cannot. PATCH /api/nodes uses it
// for parent_id:
//   - Present=false: field absent (keep the current location)
//   - Present=true, Value=nil: explicit null (move to the root)
//   - Present=true, Value=&id: move under that directory
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON implements json.Unmarshaler. The decoder only invokes it for
// fields present in the document, so reaching it at all means Present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
