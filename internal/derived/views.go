// Package derived recomputes the dashboard's read-only views from the farm
// profile plus externally fetched data. Everything here is a pure function:
// the views are never the source of truth and are rebuilt on every relevant
// input change.
package derived

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/internal/weather"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
)

// Alert is a single dashboard advisory.
type Alert struct {
	Severity enums.AlertSeverity `json:"severity"`
	Source   enums.AlertSource   `json:"source"`
	Day      string              `json:"day"`
	Message  string              `json:"message"`
}

// Views is the full recomputed dashboard state.
type Views struct {
	Weather  weather.Snapshot `json:"weather"`
	Insights []string         `json:"insights"`
	Alerts   []Alert          `json:"alerts"`
	Tasks    []profile.Task   `json:"tasks"`
}

// Weather alert thresholds. Hand-picked to match the advisory behavior the
// dashboard has always shown.
const (
	rainChanceHigh   = 70
	rainChanceMedium = 40
	heatHighC        = 38
	frostLowC        = 0
	windStrongKph    = 50
)

// Compute rebuilds the derived views. today anchors synthesized task due
// dates and insight-derived alerts.
func Compute(p *profile.FarmProfile, snap weather.Snapshot, insights []string, today time.Time) Views {
	alerts := weatherAlerts(snap)
	alerts = append(alerts, insightAlerts(insights, today)...)
	alerts = dedupeAlerts(alerts)
	sortAlerts(alerts)

	tasks := append([]profile.Task{}, p.Tasks...)
	tasks = append(tasks, SynthesizeTasks(insights, p.Tasks, today)...)

	return Views{
		Weather:  snap,
		Insights: insights,
		Alerts:   alerts,
		Tasks:    tasks,
	}
}

func weatherAlerts(snap weather.Snapshot) []Alert {
	var alerts []Alert
	add := func(severity enums.AlertSeverity, day, message string) {
		alerts = append(alerts, Alert{
			Severity: severity,
			Source:   enums.AlertSourceWeather,
			Day:      day,
			Message:  message,
		})
	}

	for _, day := range snap.Days {
		switch {
		case day.ChanceOfRain >= rainChanceHigh:
			add(enums.AlertSeverityHigh, day.Date, fmt.Sprintf("Heavy rain likely (%d%% chance); check drainage and delay spraying", day.ChanceOfRain))
		case day.ChanceOfRain >= rainChanceMedium:
			add(enums.AlertSeverityMedium, day.Date, fmt.Sprintf("Rain possible (%d%% chance); plan field work accordingly", day.ChanceOfRain))
		}
		if day.HighC >= heatHighC {
			add(enums.AlertSeverityHigh, day.Date, fmt.Sprintf("Extreme heat expected (%.0f°C); irrigate early and watch for heat stress", day.HighC))
		}
		if day.LowC <= frostLowC {
			add(enums.AlertSeverityHigh, day.Date, fmt.Sprintf("Frost risk overnight (%.0f°C); protect sensitive crops", day.LowC))
		}
		if day.WindKph >= windStrongKph {
			add(enums.AlertSeverityMedium, day.Date, fmt.Sprintf("Strong winds forecast (%.0f km/h); secure covers and postpone spraying", day.WindKph))
		}
	}
	return alerts
}

func insightAlerts(insights []string, today time.Time) []Alert {
	day := today.Format(profile.DayKey)
	var alerts []Alert
	for _, insight := range insights {
		trimmed := strings.TrimSpace(insight)
		if trimmed == "" {
			continue
		}
		severity := enums.AlertSeverityInfo
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "urgent") || strings.Contains(lower, "immediately") || strings.Contains(lower, "risk") {
			severity = enums.AlertSeverityMedium
		}
		alerts = append(alerts, Alert{
			Severity: severity,
			Source:   enums.AlertSourceInsight,
			Day:      day,
			Message:  trimmed,
		})
	}
	return alerts
}

// dedupeAlerts drops alerts with identical message and day; the first
// occurrence wins.
func dedupeAlerts(alerts []Alert) []Alert {
	type key struct {
		message string
		day     string
	}
	seen := map[key]struct{}{}
	out := alerts[:0]
	for _, a := range alerts {
		k := key{message: a.Message, day: a.Day}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

// sortAlerts orders by severity (high first), then earlier day first. The
// sort is stable so equal alerts keep their generation order.
func sortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
		}
		return alerts[i].Day < alerts[j].Day
	})
}

// taskCategory is one keyword bucket for insight-to-task synthesis. Buckets
// are scanned in declaration order and the first match wins.
type taskCategory struct {
	name     string
	title    string
	priority enums.TaskPriority
	keywords []string
}

var taskCategories = []taskCategory{
	{
		name:     "irrigation",
		title:    "Check irrigation",
		priority: enums.TaskPriorityHigh,
		keywords: []string{"irrigation", "irrigate", "watering", "soil moisture"},
	},
	{
		name:     "pest",
		title:    "Scout for pests and disease",
		priority: enums.TaskPriorityHigh,
		keywords: []string{"pest", "disease", "aphid", "fungus", "blight", "mildew", "infestation"},
	},
	{
		name:     "fertilization",
		title:    "Apply fertilizer",
		priority: enums.TaskPriorityMedium,
		keywords: []string{"fertiliz", "nutrient", "nitrogen", "phosphorus", "potassium"},
	},
	{
		name:     "planting",
		title:    "Prepare for planting",
		priority: enums.TaskPriorityMedium,
		keywords: []string{"plant", "sow", "seed", "transplant"},
	},
	{
		name:     "harvest",
		title:    "Plan harvest",
		priority: enums.TaskPriorityMedium,
		keywords: []string{"harvest", "ripen", "maturity"},
	},
	{
		name:     "monitoring",
		title:    "Monitor field conditions",
		priority: enums.TaskPriorityLow,
		keywords: []string{"monitor", "check", "inspect", "watch", "scout"},
	},
}

// SynthesizeTasks emits at most one machine-sourced task per insight, using
// the first matching keyword category. A task already present for the same
// title and due day, whether user-created or previously synthesized, is not
// duplicated.
func SynthesizeTasks(insights []string, existing []profile.Task, today time.Time) []profile.Task {
	type key struct {
		title string
		day   string
	}
	present := map[key]struct{}{}
	for _, t := range existing {
		present[key{title: t.Title, day: t.DueDate}] = struct{}{}
	}

	var out []profile.Task
	for _, insight := range insights {
		lower := strings.ToLower(insight)
		category, matched := matchCategory(lower)
		if !matched {
			continue
		}

		due := today
		if strings.Contains(lower, "tomorrow") {
			due = today.AddDate(0, 0, 1)
		}
		dueDay := due.Format(profile.DayKey)

		k := key{title: category.title, day: dueDay}
		if _, dup := present[k]; dup {
			continue
		}
		present[k] = struct{}{}

		out = append(out, profile.Task{
			ID:       uuid.New(),
			Title:    category.title,
			DueDate:  dueDay,
			Priority: category.priority,
			Source:   enums.TaskSourceInsight,
		})
	}
	return out
}

func matchCategory(lowerInsight string) (taskCategory, bool) {
	for _, category := range taskCategories {
		for _, keyword := range category.keywords {
			if strings.Contains(lowerInsight, keyword) {
				return category, true
			}
		}
	}
	return taskCategory{}, false
}
