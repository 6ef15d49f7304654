package enums

// AlertSource tags where a dashboard alert originated.
type AlertSource string

const (
	AlertSourceWeather AlertSource = "weather"
	AlertSourceInsight AlertSource = "insight"
)

// String implements fmt.Stringer.
func (a AlertSource) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertSource.
func (a AlertSource) IsValid() bool {
	return a == AlertSourceWeather || a == AlertSourceInsight
}
