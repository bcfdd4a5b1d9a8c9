package candy

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidVersion = errors.New("invalid candy version, unable to parse it properly")

// Version is the candy machine program generation.
//
// Metaplex shipped a second candy machine program with a different
// creator layout, so discovery has to know which one it is looking at.
type Version uint8

const (
	V1 Version = iota + 1
	V2
)

// ParseVersion accepts "1", "v1", "2" and "v2" in any letter case.
// Whitespace is not stripped.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(s) {
	case "1", "v1":
		return V1, nil
	case "2", "v2":
		return V2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
}

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

func (v Version) Valid() bool {
	return v == V1 || v == V2
}

// Set implements pflag.Value.
func (v *Version) Set(s string) error {
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Type implements pflag.Value.
func (v *Version) Type() string {
	return "version"
}

func (v Version) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, uint8(v))
	}
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	return v.Set(string(text))
}
