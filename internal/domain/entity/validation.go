package entity

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// maxCategories caps the allow-list; there are only six categories.
const maxCategories = 16

// ValidateEndpoint validates a push service endpoint URL.
// Push services are always reached over HTTPS. Private network targets are
// rejected because the delivery worker POSTs to whatever URL is stored here.
func ValidateEndpoint(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "endpoint", Message: "endpoint is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "endpoint",
			Message: fmt.Sprintf("endpoint must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "endpoint", Message: "endpoint is not a valid URL"}
	}

	if parsedURL.Scheme != "https" {
		return &ValidationError{Field: "endpoint", Message: "endpoint must use https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "endpoint", Message: "endpoint must have a valid host"}
	}

	host := parsedURL.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return &ValidationError{Field: "endpoint", Message: "endpoint cannot point to private network"}
		}
		return nil
	}

	ips, err := net.LookupIP(host)
	if err == nil && len(ips) > 0 {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "endpoint",
					Message: "endpoint cannot point to private network",
				}
			}
		}
	}

	return nil
}

// isPrivateIP checks if an IP address is in a private or restricted range.
// This blocks:
// - localhost (127.0.0.0/8, ::1)
// - link-local addresses (169.254.0.0/16, fe80::/10)
// - private networks (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
// - cloud metadata endpoints (169.254.169.254)
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}

	if ip.IsLinkLocalUnicast() {
		return true
	}

	privateIPv4Ranges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
	}

	for _, cidr := range privateIPv4Ranges {
		_, subnet, _ := net.ParseCIDR(cidr)
		if subnet.Contains(ip) {
			return true
		}
	}

	return false
}

// ParseClockTime parses a strict 24-hour "HH:MM" string into minutes since midnight.
func ParseClockTime(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: clock time %q must be HH:MM", ErrInvalidInput, s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: clock time %q must be HH:MM", ErrInvalidInput, s)
		}
	}

	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: clock time %q out of range", ErrInvalidInput, s)
	}

	return hour*60 + minute, nil
}

// ValidateQuietHours checks both window bounds are well-formed.
// The bounds are validated even when the window is disabled so a later
// toggle never activates a malformed window.
func ValidateQuietHours(q QuietHours) error {
	if _, err := ParseClockTime(q.Start); err != nil {
		return &ValidationError{Field: "quietHours.start", Message: "must be HH:MM (00:00-23:59)"}
	}
	if _, err := ParseClockTime(q.End); err != nil {
		return &ValidationError{Field: "quietHours.end", Message: "must be HH:MM (00:00-23:59)"}
	}
	return nil
}

// ValidatePreferences validates a full preference set.
func ValidatePreferences(p Preferences) error {
	if !p.Frequency.IsValid() {
		return &ValidationError{Field: "frequency", Message: "must be one of immediate, hourly, daily"}
	}

	if len(p.Categories) > maxCategories {
		return &ValidationError{Field: "categories", Message: "too many categories"}
	}
	for _, c := range p.Categories {
		if !c.IsValid() {
			return &ValidationError{Field: "categories", Message: fmt.Sprintf("invalid category %q", c)}
		}
	}

	if err := ValidateQuietHours(p.QuietHours); err != nil {
		return err
	}

	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return &ValidationError{Field: "timezone", Message: "must be a valid IANA timezone"}
		}
	}

	return nil
}

// ValidateSubscription validates a registration before it is stored.
func ValidateSubscription(s *Subscription) error {
	if s == nil {
		return ErrInvalidInput
	}
	if err := ValidateEndpoint(s.Endpoint); err != nil {
		return err
	}
	if s.Keys.P256dh == "" {
		return &ValidationError{Field: "keys.p256dh", Message: "p256dh key is required"}
	}
	if s.Keys.Auth == "" {
		return &ValidationError{Field: "keys.auth", Message: "auth key is required"}
	}
	return ValidatePreferences(s.Preferences)
}
