package enums

import "fmt"

// AlertSeverity orders dashboard alerts from most to least urgent.
type AlertSeverity string

const (
	AlertSeverityHigh    AlertSeverity = "high"
	AlertSeverityMedium  AlertSeverity = "medium"
	AlertSeverityLow     AlertSeverity = "low"
	AlertSeverityInfo    AlertSeverity = "info"
	AlertSeveritySuccess AlertSeverity = "success"
)

var validAlertSeverities = []AlertSeverity{
	AlertSeverityHigh,
	AlertSeverityMedium,
	AlertSeverityLow,
	AlertSeverityInfo,
	AlertSeveritySuccess,
}

// severityRank: lower sorts first.
var severityRank = map[AlertSeverity]int{
	AlertSeverityHigh:    0,
	AlertSeverityMedium:  1,
	AlertSeverityLow:     2,
	AlertSeverityInfo:    3,
	AlertSeveritySuccess: 4,
}

// String implements fmt.Stringer.
func (a AlertSeverity) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertSeverity.
func (a AlertSeverity) IsValid() bool {
	for _, candidate := range validAlertSeverities {
		if candidate == a {
			return true
		}
	}
	return false
}

// Rank returns the sort rank of the severity; unknown values sort last.
func (a AlertSeverity) Rank() int {
	if rank, ok := severityRank[a]; ok {
		return rank
	}
	return len(severityRank)
}

// ParseAlertSeverity converts raw input into an AlertSeverity.
func ParseAlertSeverity(value string) (AlertSeverity, error) {
	for _, candidate := range validAlertSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert severity %q", value)
}
