package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateValidContactCreated(t *testing.T) {
	data := []byte(`{"contact_id":"c1","owner_id":"o1","renter_id":"r1","property_id":"p1","message":"hi","created_at":"2026-10-01T10:00:00Z"}`)
	if err := Validate(SubjectContactCreated, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	data := []byte(`{"foo":"bar"}`)
	if err := Validate("unknown.subject", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	err := Validate(SubjectContactCreated, []byte(`{not valid json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' in error, got: %v", err)
	}
}

func TestValidateInvalidSchema(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"wrong shape", `"just a string"`},
		{"missing contact id", `{"owner_id":"o1","renter_id":"r1"}`},
		{"missing renter id", `{"contact_id":"c1","owner_id":"o1"}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(SubjectContactCreated, []byte(tt.data))
			if err == nil {
				t.Fatal("expected schema validation error")
			}
			if !strings.Contains(err.Error(), "schema validation failed") {
				t.Fatalf("expected 'schema validation failed' in error, got: %v", err)
			}
		})
	}
}
