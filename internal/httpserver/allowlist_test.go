package httpserver

import "testing"

func TestCIDRAllowlistAllows(t *testing.T) {
	a, err := newCIDRAllowlist([]string{" 192.168.1.0/24 ", "10.0.0.1/8", "::1/128"})
	if err != nil {
		t.Fatalf("newCIDRAllowlist: %v", err)
	}

	cases := []struct {
		remote string
		want   bool
	}{
		{"192.168.1.20:40000", true},
		{"192.168.2.20:40000", false},
		{"10.200.0.1:1", true},
		{"10.200.0.1", true},
		{"[::1]:8080", true},
		{"[::ffff:192.168.1.7]:80", true},
		{"[2001:db8::1]:80", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := a.allows(tc.remote); got != tc.want {
			t.Fatalf("allows(%q) = %v; want %v", tc.remote, got, tc.want)
		}
	}
}

func TestCIDRAllowlistRejectsBadCIDR(t *testing.T) {
	if _, err := newCIDRAllowlist([]string{"192.168.1.0/33"}); err == nil {
		t.Fatalf("expected error")
	}
}
