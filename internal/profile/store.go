package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

var (
	// ErrAlreadyCompleted marks a repeated onboarding-completion transition.
	// Callers treat it as a non-fatal idempotency signal, not an abort.
	ErrAlreadyCompleted = errors.New("onboarding already completed")

	// ErrTaskNotFound marks a toggle addressed at an unknown task ID.
	ErrTaskNotFound = errors.New("task not found")
)

// Store owns the canonical in-memory FarmProfile for one account and applies
// validated mutations. It is not safe for concurrent use; the request layer
// serializes access per account.
type Store struct {
	profile *FarmProfile
	logg    *logger.Logger
	now     func() time.Time
}

// StoreOption configures optional store behavior.
type StoreOption func(*Store)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger for programmer-error diagnostics.
func WithLogger(logg *logger.Logger) StoreOption {
	return func(s *Store) {
		s.logg = logg
	}
}

// NewStore creates a store around an empty profile for the account.
func NewStore(accountID string, opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.profile = NewFarmProfile(accountID, s.now())
	return s
}

// NewStoreFrom wraps an already loaded profile.
func NewStoreFrom(p *FarmProfile, opts ...StoreOption) *Store {
	s := &Store{now: time.Now, profile: p}
	for _, opt := range opts {
		opt(s)
	}
	if s.profile.Collections == nil {
		s.profile.Collections = map[enums.Collection][]string{}
	}
	if s.profile.CompletedDates == nil {
		s.profile.CompletedDates = map[string]bool{}
	}
	return s
}

// Profile returns the live profile. Callers must not retain the pointer
// across mutations; use Snapshot for that.
func (s *Store) Profile() *FarmProfile {
	return s.profile
}

// Snapshot returns a deep copy frozen at the current state. Persistence saves
// issued after a mutation use the snapshot taken at that mutation so a later
// edit cannot leak into an earlier save.
func (s *Store) Snapshot() *FarmProfile {
	return s.profile.Clone()
}

func (s *Store) touch() {
	s.profile.UpdatedAt = s.now()
}

// SetIdentity updates the display name and farm name.
func (s *Store) SetIdentity(name, farmName string) {
	s.profile.Name = name
	s.profile.FarmName = farmName
	s.touch()
}

// SetLocationCoords stores coordinates and makes them authoritative.
func (s *Store) SetLocationCoords(lat, lon float64) {
	s.profile.Location.Coords = &Coords{Lat: lat, Lon: lon}
	s.profile.Location.Preference = PreferCoordinates
	s.touch()
}

// SetLocationText stores the free-text fallback. Existing coordinates lose
// display authority but are kept until ClearLocationCoords.
func (s *Store) SetLocationText(text string) {
	s.profile.Location.Text = text
	s.profile.Location.Preference = PreferText
	s.touch()
}

// ClearLocationCoords deletes the stored coordinates entirely.
func (s *Store) ClearLocationCoords() {
	s.profile.Location.Coords = nil
	if s.profile.Location.Text != "" {
		s.profile.Location.Preference = PreferText
	} else {
		s.profile.Location.Preference = ""
	}
	s.touch()
}

// SetBoundary replaces the boundary. A nil polygon always succeeds and
// clears it; anything else must be a closed ring of at least three distinct
// points. Re-setting an equal boundary changes only the update timestamp.
func (s *Store) SetBoundary(p *geometry.Polygon) error {
	if p != nil {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	s.profile.Boundary = p.Clone()
	s.touch()
	return nil
}

// SetArea replaces the area measurement; nil clears it.
func (s *Store) SetArea(area *AreaMeasurement) {
	if area == nil {
		s.profile.Area = nil
	} else {
		copied := *area
		s.profile.Area = &copied
	}
	s.touch()
}

// SetSoilTexture replaces the soil classification.
func (s *Store) SetSoilTexture(texture enums.SoilTexture) {
	s.profile.SoilTexture = texture
	s.touch()
}

// SetTrack selects the guided-setup path. The track is chosen once during
// onboarding and frozen afterwards.
func (s *Store) SetTrack(track enums.Track) error {
	if s.profile.OnboardingCompleted {
		return ErrAlreadyCompleted
	}
	s.profile.Track = track
	s.touch()
	return nil
}

// ToggleSetMember adds value to the named collection if absent, removes it
// if present. An unrecognized collection name is a programmer error: logged,
// swallowed, nothing mutated.
func (s *Store) ToggleSetMember(ctx context.Context, collectionName, value string) {
	name, err := enums.ParseCollection(collectionName)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "collection", collectionName), "toggle addressed unknown collection")
		}
		return
	}

	current := s.profile.Collections[name]
	next := make([]string, 0, len(current)+1)
	removed := false
	for _, existing := range current {
		if existing == value {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	if !removed {
		next = append(next, value)
	}
	if len(next) == 0 {
		delete(s.profile.Collections, name)
	} else {
		s.profile.Collections[name] = next
	}
	s.touch()
}

// MarkOnboardingComplete performs the one-way completion transition.
func (s *Store) MarkOnboardingComplete() error {
	if s.profile.OnboardingCompleted {
		return ErrAlreadyCompleted
	}
	s.profile.OnboardingCompleted = true
	s.touch()
	return nil
}

// AddTask appends a user-created task and returns it.
func (s *Store) AddTask(title, dueDate string, priority enums.TaskPriority) Task {
	task := Task{
		ID:       uuid.New(),
		Title:    title,
		DueDate:  dueDate,
		Priority: priority,
		Source:   enums.TaskSourceUser,
	}
	s.profile.Tasks = append(s.profile.Tasks, task)
	s.recomputeCompletedDate(dueDate)
	s.touch()
	return task
}

// ToggleTaskCompletion flips a task's completion flag and recomputes the
// completed-dates entry for that task's due day from the post-toggle list.
func (s *Store) ToggleTaskCompletion(taskID uuid.UUID) error {
	task := s.profile.TaskByID(taskID)
	if task == nil {
		return ErrTaskNotFound
	}
	task.Completed = !task.Completed
	s.recomputeCompletedDate(task.DueDate)
	s.touch()
	return nil
}

// ReplaceInsightTasks swaps out all machine-sourced tasks for the supplied
// set, leaving user tasks untouched, and recomputes every affected day.
func (s *Store) ReplaceInsightTasks(tasks []Task) {
	affected := map[string]struct{}{}
	kept := make([]Task, 0, len(s.profile.Tasks)+len(tasks))
	for _, t := range s.profile.Tasks {
		if t.Source == enums.TaskSourceInsight {
			affected[t.DueDate] = struct{}{}
			continue
		}
		kept = append(kept, t)
	}
	for _, t := range tasks {
		t.Source = enums.TaskSourceInsight
		kept = append(kept, t)
		affected[t.DueDate] = struct{}{}
	}
	s.profile.Tasks = kept
	for day := range affected {
		s.recomputeCompletedDate(day)
	}
	s.touch()
}

// recomputeCompletedDate sets completedDates[day] to true only when every
// task due that day is complete, and removes the entry otherwise. Days with
// no tasks carry no entry.
func (s *Store) recomputeCompletedDate(day string) {
	total := 0
	done := 0
	for _, t := range s.profile.Tasks {
		if t.DueDate != day {
			continue
		}
		total++
		if t.Completed {
			done++
		}
	}
	if total > 0 && done == total {
		s.profile.CompletedDates[day] = true
	} else {
		delete(s.profile.CompletedDates, day)
	}
}
