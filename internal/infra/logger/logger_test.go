package logger

import "testing"

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "john.doe@example.com", want: "joh***@example.com"},
		{in: "ab@example.com", want: "ab***@example.com"},
		{in: "", want: ""},
		{in: "not-an-email", want: "***"},
	}

	for _, tc := range tests {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "192.168.17.4", want: "192.168.*.*"},
		{in: "2001:db8:85a3:8d3:1319:8a2e:370:7348", want: "2001:db8:85a3:8d3:*:*:*:*"},
		{in: "", want: ""},
		{in: "localhost", want: "***"},
	}

	for _, tc := range tests {
		if got := MaskIP(tc.in); got != tc.want {
			t.Errorf("MaskIP(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "supersecret", want: "su***et"},
		{in: "abcd", want: "***"},
		{in: "", want: ""},
	}

	for _, tc := range tests {
		if got := MaskString(tc.in); got != tc.want {
			t.Errorf("MaskString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
