// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPlatform is returned when a platform name is not supported.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platform identifies an external account a creator can connect.
type Platform string

// Supported platforms.
const (
	PlatformYouTube   Platform = "youtube"
	PlatformGitHub    Platform = "github"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformBehance   Platform = "behance"
	PlatformDribbble  Platform = "dribbble"
)

var supportedPlatforms = [...]Platform{ //nolint:gochecknoglobals // fixed platform catalogue
	PlatformYouTube,
	PlatformGitHub,
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformInstagram,
	PlatformBehance,
	PlatformDribbble,
}

// platformAliases maps alternate spellings to their canonical platform.
var platformAliases = map[string]Platform{ //nolint:gochecknoglobals // read-only lookup
	"x": PlatformTwitter,
}

// SupportedPlatforms returns every supported platform in catalogue order.
func SupportedPlatforms() []Platform {
	out := make([]Platform, len(supportedPlatforms))
	copy(out, supportedPlatforms[:])
	return out
}

// SupportedPlatformCount is the size of the platform catalogue.
func SupportedPlatformCount() int {
	return len(supportedPlatforms)
}

// Supported reports whether p is in the platform catalogue.
func (p Platform) Supported() bool {
	for _, sp := range supportedPlatforms {
		if p == sp {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// ParsePlatform resolves a case-insensitive platform name, including aliases.
func ParsePlatform(s string) (Platform, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := platformAliases[name]; ok {
		return alias, nil
	}
	p := Platform(name)
	if !p.Supported() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unsupported names.
func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
