package model

import (
	"encoding/json"
	"testing"
)

func TestRefUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantID  string
		wantDoc bool
	}{
		{"bare id", `"68a1"`, "68a1", false},
		{"populated doc", `{"_id":"68a1","name":"Acme"}`, "68a1", true},
		{"populated doc with plain id", `{"id":"68a1","name":"Acme"}`, "68a1", true},
		{"extended json oid", `{"_id":{"$oid":"68a1"}}`, "68a1", true},
		{"null", `null`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Ref
			if err := json.Unmarshal([]byte(tt.in), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if r.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", r.ID, tt.wantID)
			}
			if (r.Doc != nil) != tt.wantDoc {
				t.Errorf("Doc present = %v, want %v", r.Doc != nil, tt.wantDoc)
			}
		})
	}
}

func TestRefMarshalEmitsBareID(t *testing.T) {
	r := Ref{ID: "abc", Doc: json.RawMessage(`{"_id":"abc"}`)}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"abc"` {
		t.Fatalf("marshal = %s, want \"abc\"", out)
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantZero bool
	}{
		{"rfc3339", `"2026-03-15T10:00:00Z"`, false},
		{"bare date", `"2026-03-15"`, false},
		{"null", `null`, true},
		{"empty string", `""`, true},
		{"garbage", `"not a date"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ts.IsZero() != tt.wantZero {
				t.Errorf("IsZero = %v, want %v", ts.IsZero(), tt.wantZero)
			}
		})
	}
}

func TestMoneyUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`42.5`, 42.5},
		{`"42.5"`, 42.5},
		{`" 100 "`, 100},
		{`"nope"`, 0},
		{`null`, 0},
		{`{}`, 0},
	}

	for _, tt := range tests {
		var m Money
		if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if m.Float() != tt.want {
			t.Errorf("Money(%s) = %v, want %v", tt.in, m.Float(), tt.want)
		}
	}
}

func TestSubscriptionIDAliasing(t *testing.T) {
	raw := `{"_id":"68b2","name":"Figma","amount":"144","period":"YEARLY","workspaceId":{"_id":"ws1","name":"Design"}}`

	var s Subscription
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.ID != "68b2" {
		t.Errorf("ID = %q, want 68b2", s.ID)
	}
	if s.Amount.Float() != 144 {
		t.Errorf("Amount = %v, want 144", s.Amount.Float())
	}
	if s.Period.Normalize() != PeriodYearly {
		t.Errorf("Period = %q, want yearly", s.Period.Normalize())
	}
	if s.WorkspaceID.ID != "ws1" {
		t.Errorf("WorkspaceID = %q, want ws1", s.WorkspaceID.ID)
	}
}
