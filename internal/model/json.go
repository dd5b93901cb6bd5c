package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Ref is a document reference the API serves in two shapes: a bare id
// string, or a populated document carrying its own _id. Decoding resolves
// both into the ID; the populated form is kept for callers that want it.
type Ref struct {
	ID  string
	Doc json.RawMessage // non-nil when the server populated the document
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(b []byte) error {
	*r = Ref{}

	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.ID = s
		return nil
	}

	// Populated document
	r.ID = documentID(b)
	r.Doc = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON emits the bare id form, which is what every write endpoint expects.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// documentID extracts _id (or id) from a raw JSON document.
func documentID(b []byte) string {
	var probe struct {
		OID json.RawMessage `json:"_id"`
		ID  json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return ""
	}

	for _, raw := range []json.RawMessage{probe.OID, probe.ID} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		// Mongo extended JSON: {"$oid": "..."}
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(raw, &oid); err == nil && oid.OID != "" {
			return oid.OID
		}
	}
	return ""
}

// Timestamp tolerates the timestamp shapes the API mixes: RFC3339,
// bare dates (quick-renewal writes back YYYY-MM-DD), and null.
// The zero value means "no date".
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}

	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil // not a string, treat as absent rather than failing the document
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Money is a currency amount. The API occasionally serves numeric fields
// as strings; anything unparseable decodes to 0 instead of failing the
// enclosing document.
type Money float64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(b []byte) error {
	*m = 0

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*m = Money(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*m = Money(v)
		}
	}
	return nil
}

// Float returns the amount as a float64.
func (m Money) Float() float64 {
	return float64(m)
}
