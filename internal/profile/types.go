package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
)

// DayKey is the calendar-day format used for task due dates and the
// completed-dates map.
const DayKey = "2006-01-02"

// Coords is a latitude/longitude pair captured from the map widget.
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationPreference records which location representation the UI should
// treat as authoritative.
type LocationPreference string

const (
	PreferCoordinates LocationPreference = "coordinates"
	PreferText        LocationPreference = "text"
)

// Location holds both representations of the farm location. Supplying text
// demotes existing coordinates for display without deleting them; supplying
// coordinates promotes them again.
type Location struct {
	Coords     *Coords
	Text       string
	Preference LocationPreference
}

// Authoritative returns the coordinates when they are present and preferred,
// otherwise nil, signalling the text fallback should be displayed.
func (l Location) Authoritative() *Coords {
	if l.Coords == nil {
		return nil
	}
	if l.Preference == PreferText && l.Text != "" {
		return nil
	}
	return l.Coords
}

// IsZero reports whether no location information has been captured.
func (l Location) IsZero() bool {
	return l.Coords == nil && l.Text == ""
}

// AreaMeasurement is the optional farm-area magnitude plus unit.
type AreaMeasurement struct {
	Value float64        `json:"value"`
	Unit  enums.AreaUnit `json:"unit"`
}

// Task is a dashboard task. Machine-sourced tasks are regenerated on insight
// refresh; user tasks never are.
type Task struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	DueDate   string             `json:"due_date"`
	Priority  enums.TaskPriority `json:"priority"`
	Completed bool               `json:"completed"`
	Source    enums.TaskSource   `json:"source"`
}

// FarmProfile is the canonical record describing one account's farm. The
// Store owns the in-memory instance; the serialized document shape lives in
// serialize.go.
type FarmProfile struct {
	AccountID string

	Name     string
	FarmName string

	Location Location
	Boundary *geometry.Polygon

	Area        *AreaMeasurement
	SoilTexture enums.SoilTexture

	Collections map[enums.Collection][]string

	OnboardingCompleted bool
	Track               enums.Track

	Tasks          []Task
	CompletedDates map[string]bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewFarmProfile returns an empty profile for a newly seen account.
func NewFarmProfile(accountID string, now time.Time) *FarmProfile {
	return &FarmProfile{
		AccountID:      accountID,
		Collections:    map[enums.Collection][]string{},
		CompletedDates: map[string]bool{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy used for snapshot-at-mutation save semantics.
func (p *FarmProfile) Clone() *FarmProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Location.Coords != nil {
		coords := *p.Location.Coords
		out.Location.Coords = &coords
	}
	out.Boundary = p.Boundary.Clone()
	if p.Area != nil {
		area := *p.Area
		out.Area = &area
	}
	out.Collections = make(map[enums.Collection][]string, len(p.Collections))
	for name, values := range p.Collections {
		copied := make([]string, len(values))
		copy(copied, values)
		out.Collections[name] = copied
	}
	out.Tasks = make([]Task, len(p.Tasks))
	copy(out.Tasks, p.Tasks)
	out.CompletedDates = make(map[string]bool, len(p.CompletedDates))
	for day, done := range p.CompletedDates {
		out.CompletedDates[day] = done
	}
	return &out
}

// TaskByID returns the task with the given ID, or nil.
func (p *FarmProfile) TaskByID(id uuid.UUID) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}
