package enums

import "fmt"

// Track is the guided-setup path chosen once during onboarding.
type Track string

const (
	TrackExploration      Track = "exploration"
	TrackProgressTracking Track = "progress_tracking"
)

var validTracks = []Track{
	TrackExploration,
	TrackProgressTracking,
}

// String implements fmt.Stringer.
func (t Track) String() string {
	return string(t)
}

// IsValid reports whether the value is a known Track.
func (t Track) IsValid() bool {
	for _, candidate := range validTracks {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTrack converts raw input into a Track.
func ParseTrack(value string) (Track, error) {
	for _, candidate := range validTracks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid track %q", value)
}
