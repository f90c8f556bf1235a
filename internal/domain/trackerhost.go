package domain

import (
	"net"
	"net/url"
	"strings"
)

// multiPartSuffixes are labels that, in second-to-last position, indicate the
// registrable domain spans three labels (e.g. tracker.co.com).
var multiPartSuffixes = map[string]struct{}{
	"co": {}, "com": {}, "net": {}, "org": {},
}

// twoLevelTLDs are effective TLDs made of two labels. They count as a single
// label when collapsing a tracker hostname.
var twoLevelTLDs = map[string]struct{}{
	"co.uk": {}, "org.uk": {}, "net.uk": {}, "ac.uk": {}, "gov.uk": {},
	"com.au": {}, "net.au": {}, "org.au": {}, "co.nz": {}, "co.jp": {},
}

// TrackerHost derives the short display hostname from a tracker URL. Literal
// IP addresses pass through unmodified; otherwise the hostname is collapsed
// to its last two labels, keeping one more when the suffix needs it. An URL
// without a hostname maps to "DHT".
func TrackerHost(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return "DHT"
	}
	if net.ParseIP(host) != nil {
		return host
	}

	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}

	keep := 2
	last2 := parts[len(parts)-2] + "." + parts[len(parts)-1]
	if _, ok := twoLevelTLDs[last2]; ok {
		// The two-level TLD counts as one label, so "last three labels"
		// spans four raw parts.
		keep = 4
	} else if _, ok := multiPartSuffixes[parts[len(parts)-2]]; ok {
		keep = 3
	}
	if keep > len(parts) {
		keep = len(parts)
	}
	return strings.Join(parts[len(parts)-keep:], ".")
}
