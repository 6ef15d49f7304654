package weather

// Current is the present-moment conditions block of a snapshot.
type Current struct {
	TempC       float64 `json:"temp_c"`
	Condition   string  `json:"condition"`
	HumidityPct int     `json:"humidity_pct"`
	WindKph     float64 `json:"wind_kph"`
}

// DayForecast is one day of the short-range forecast.
type DayForecast struct {
	Date         string  `json:"date"`
	HighC        float64 `json:"high_c"`
	LowC         float64 `json:"low_c"`
	Condition    string  `json:"condition"`
	ChanceOfRain int     `json:"chance_of_rain"`
	HumidityPct  int     `json:"humidity_pct"`
	WindKph      float64 `json:"wind_kph"`
}

// Snapshot is the date-keyed weather view consumed by derived-view
// recomputation. A zero Snapshot is the typed fallback for provider failure.
type Snapshot struct {
	Current *Current      `json:"current,omitempty"`
	Days    []DayForecast `json:"days,omitempty"`
}

// IsZero reports whether the snapshot carries no data at all.
func (s Snapshot) IsZero() bool {
	return s.Current == nil && len(s.Days) == 0
}
