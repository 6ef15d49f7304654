package enums

import "fmt"

// SoilTexture is the fixed soil classification vocabulary used by onboarding.
type SoilTexture string

const (
	SoilTextureSandy SoilTexture = "sandy"
	SoilTextureLoamy SoilTexture = "loamy"
	SoilTextureClay  SoilTexture = "clay"
	SoilTextureSilty SoilTexture = "silty"
	SoilTexturePeaty SoilTexture = "peaty"
	SoilTextureChalk SoilTexture = "chalky"
)

var validSoilTextures = []SoilTexture{
	SoilTextureSandy,
	SoilTextureLoamy,
	SoilTextureClay,
	SoilTextureSilty,
	SoilTexturePeaty,
	SoilTextureChalk,
}

// String implements fmt.Stringer.
func (s SoilTexture) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SoilTexture.
func (s SoilTexture) IsValid() bool {
	for _, candidate := range validSoilTextures {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSoilTexture converts raw input into a SoilTexture.
func ParseSoilTexture(value string) (SoilTexture, error) {
	for _, candidate := range validSoilTextures {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid soil texture %q", value)
}
