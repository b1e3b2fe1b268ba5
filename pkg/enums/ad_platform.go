package enums

import "fmt"

// AdPlatform maps to the ad_platform enum in Postgres.
type AdPlatform string

const (
	AdPlatformMeta     AdPlatform = "meta"
	AdPlatformTikTok   AdPlatform = "tiktok"
	AdPlatformGoogle   AdPlatform = "google"
	AdPlatformLinkedIn AdPlatform = "linkedin"
)

var validAdPlatforms = []AdPlatform{
	AdPlatformMeta,
	AdPlatformTikTok,
	AdPlatformGoogle,
	AdPlatformLinkedIn,
}

// String implements fmt.Stringer.
func (a AdPlatform) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a AdPlatform) IsValid() bool {
	for _, candidate := range validAdPlatforms {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdPlatform converts raw input into an AdPlatform.
func ParseAdPlatform(value string) (AdPlatform, error) {
	for _, candidate := range validAdPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ad platform %q", value)
}
