package contact

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		max     int
		wantErr bool
	}{
		{"plain", "Hi, my 2BHK in HSR is available from November.", 2000, false},
		{"blank", "", 2000, true},
		{"whitespace only", " \t\n ", 2000, true},
		{"exactly max", strings.Repeat("a", 10), 10, false},
		{"over max", strings.Repeat("a", 11), 10, true},
		{"max counts runes", strings.Repeat("₹", 10), 10, false},
		{"surrounding space not counted", "  " + strings.Repeat("a", 10) + "  ", 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CreateRequest{Message: tt.msg}
			if err := r.ValidateMessage(tt.max); (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContactRequestJSONHidesRenterID(t *testing.T) {
	c := ContactRequest{
		ID:          "c1",
		OwnerID:     "o1",
		RenterID:    "renter-uuid-secret",
		AnonymousID: "Renter #4",
		PropertyID:  "p1",
		Message:     "hello",
		CreatedAt:   time.Now(),
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "renter-uuid-secret") {
		t.Fatalf("raw renter id leaked: %s", data)
	}
	if !strings.Contains(string(data), `"renter_id":"Renter #4"`) {
		t.Fatalf("expected anonymous renter_id: %s", data)
	}
}

func TestEvent(t *testing.T) {
	c := ContactRequest{ID: "c1", OwnerID: "o1", RenterID: "r1", PropertyID: "p1", Message: "hi"}
	ev := c.Event()
	if err := ev.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if ev.RenterID != "r1" || ev.ContactID != "c1" {
		t.Errorf("unexpected event %+v", ev)
	}

	if err := (&Created{OwnerID: "o1", RenterID: "r1"}).Validate(); err == nil {
		t.Error("expected error for missing contact_id")
	}
}
