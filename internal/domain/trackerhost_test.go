package domain

import "testing"

func TestTrackerHost(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"udp://tracker.example.com/announce", "example.com"},
		{"udp://a.b.example.net/announce", "example.net"},
		{"http://tracker.example.co.uk/announce", "tracker.example.co.uk"},
		{"udp://tracker.example.co.uk/announce", "tracker.example.co.uk"},
		{"http://announce.tracker.co.com/announce", "tracker.co.com"},
		{"http://example.org/announce", "example.org"},
		{"udp://10.0.0.5:6969/announce", "10.0.0.5"},
		{"http://[2001:db8::1]:6969/announce", "2001:db8::1"},
		{"udp://localhost:8080/announce", "localhost"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := TrackerHost(tc.url); got != tc.want {
			t.Errorf("TrackerHost(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestTrackerHostNoHostIsDHT(t *testing.T) {
	if got := TrackerHost("dht://"); got != "DHT" {
		t.Fatalf("TrackerHost(dht://) = %q, want DHT", got)
	}
}
