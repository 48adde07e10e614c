package natskv

import "testing"

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"anon.renter-1", "anon.renter-1"},
		{"anon:renter-1", "b64.YW5vbjpyZW50ZXItMQ"},
		{"b64.plain", "b64.YjY0LnBsYWlu"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := encodeKey(tt.in); got != tt.want {
				t.Errorf("encodeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := 0; i < len(encodeKey(tt.in)); i++ {
				if !validKeyByte(encodeKey(tt.in)[i]) {
					t.Fatalf("encoded key %q has invalid byte", encodeKey(tt.in))
				}
			}
		})
	}
}

func TestEncodeKeyDistinct(t *testing.T) {
	// A raw key that looks encoded must not collide with the encoding of another key.
	a := encodeKey("anon:x")
	b := encodeKey(a)
	if a == b {
		t.Fatalf("collision: %q", a)
	}
}
