package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"912345678", "+56912345678"},
		{"12345678", "+56912345678"},
		{"56912345678", "+56912345678"},
		{"+56912345678", "+56912345678"},
		{"9 1234 5678", "+56912345678"},
		{"(9) 1234-5678", "+56912345678"},
		{"+56 9 1234.5678", "+56912345678"},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if err != nil {
			t.Errorf("NormalizePhone(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhoneInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "12345", "+1", "1234567890123456", "9123456789"} {
		if got, err := NormalizePhone(in); err == nil {
			t.Errorf("NormalizePhone(%q) = %q, want error", in, got)
		}
	}
}
