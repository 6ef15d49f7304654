package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
)

func testClock() func() time.Time {
	current := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore("acct-1", WithClock(testClock()))
}

func triangle() *geometry.Polygon {
	return &geometry.Polygon{Ring: []geometry.Coordinate{
		{Lon: -97.1, Lat: 33.2},
		{Lon: -97.0, Lat: 33.2},
		{Lon: -97.0, Lat: 33.3},
		{Lon: -97.1, Lat: 33.2},
	}}
}

func TestSetBoundaryAcceptsTriangleRejectsDegenerate(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetBoundary(triangle()); err != nil {
		t.Fatalf("expected 3-point closed ring to be accepted: %v", err)
	}

	twoPoint := &geometry.Polygon{Ring: []geometry.Coordinate{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 0},
	}}
	if err := s.SetBoundary(twoPoint); !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry for 2-point ring, got %v", err)
	}

	open := &geometry.Polygon{Ring: []geometry.Coordinate{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 1},
	}}
	if err := s.SetBoundary(open); !errors.Is(err, geometry.ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry for open ring, got %v", err)
	}

	// The rejected writes must not have clobbered the stored boundary.
	if !s.Profile().Boundary.Equal(triangle()) {
		t.Fatal("rejected boundary write mutated the profile")
	}
}

func TestSetBoundaryIdempotentBeyondTimestamp(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetBoundary(triangle()); err != nil {
		t.Fatalf("set boundary: %v", err)
	}
	before := s.Snapshot()

	if err := s.SetBoundary(triangle()); err != nil {
		t.Fatalf("repeat set boundary: %v", err)
	}
	after := s.Profile()

	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatal("expected update timestamp to advance")
	}
	if !before.Boundary.Equal(after.Boundary) {
		t.Fatal("boundary changed on idempotent re-set")
	}
}

func TestSetBoundaryNilClears(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetBoundary(triangle()); err != nil {
		t.Fatalf("set boundary: %v", err)
	}
	if err := s.SetBoundary(nil); err != nil {
		t.Fatalf("nil must always succeed, got %v", err)
	}
	if s.Profile().Boundary != nil {
		t.Fatal("expected boundary cleared")
	}
}

func TestToggleSetMemberParity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Odd number of toggles: present. Even: absent. Never a duplicate.
	for i := 0; i < 5; i++ {
		s.ToggleSetMember(ctx, "crop_types", "Cotton")
	}
	for i := 0; i < 4; i++ {
		s.ToggleSetMember(ctx, "crop_types", "Wheat")
	}

	crops := s.Profile().Collections[enums.CollectionCropTypes]
	if len(crops) != 1 || crops[0] != "Cotton" {
		t.Fatalf("expected [Cotton], got %v", crops)
	}
}

func TestToggleSetMemberPreservesInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.ToggleSetMember(ctx, "goals", "yield")
	s.ToggleSetMember(ctx, "goals", "sustainability")
	s.ToggleSetMember(ctx, "goals", "profit")
	s.ToggleSetMember(ctx, "goals", "sustainability") // remove middle
	s.ToggleSetMember(ctx, "goals", "sustainability") // re-add at end

	goals := s.Profile().Collections[enums.CollectionGoals]
	want := []string{"yield", "profit", "sustainability"}
	if len(goals) != len(want) {
		t.Fatalf("expected %v, got %v", want, goals)
	}
	for i := range want {
		if goals[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, goals)
		}
	}
}

func TestToggleSetMemberUnknownCollectionIsNoOp(t *testing.T) {
	s := newTestStore(t)
	before := s.Snapshot()

	s.ToggleSetMember(context.Background(), "favorite_tractors", "big red")

	after := s.Profile()
	if len(after.Collections) != len(before.Collections) {
		t.Fatal("unknown collection toggle mutated state")
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatal("unknown collection toggle advanced the update timestamp")
	}
}

func TestMarkOnboardingCompleteIsOneWay(t *testing.T) {
	s := newTestStore(t)
	if err := s.MarkOnboardingComplete(); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if err := s.MarkOnboardingComplete(); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if !s.Profile().OnboardingCompleted {
		t.Fatal("completion flag lost")
	}
}

func TestSetTrackFrozenAfterOnboarding(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetTrack(enums.TrackExploration); err != nil {
		t.Fatalf("set track: %v", err)
	}
	if err := s.MarkOnboardingComplete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.SetTrack(enums.TrackProgressTracking); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if s.Profile().Track != enums.TrackExploration {
		t.Fatalf("track changed after completion: %v", s.Profile().Track)
	}
}

func TestCompletedDatesFollowTaskToggles(t *testing.T) {
	s := newTestStore(t)
	day := "2024-04-01"

	irrigate := s.AddTask("Irrigate", day, enums.TaskPriorityHigh)
	scout := s.AddTask("Scout", day, enums.TaskPriorityMedium)

	if err := s.ToggleTaskCompletion(irrigate.ID); err != nil {
		t.Fatalf("toggle irrigate: %v", err)
	}
	if _, present := s.Profile().CompletedDates[day]; present {
		t.Fatal("expected no entry while one task remains open")
	}

	if err := s.ToggleTaskCompletion(scout.ID); err != nil {
		t.Fatalf("toggle scout: %v", err)
	}
	if done := s.Profile().CompletedDates[day]; !done {
		t.Fatal("expected day marked complete once every task is done")
	}

	// Un-completing removes the entry rather than setting it false.
	if err := s.ToggleTaskCompletion(irrigate.ID); err != nil {
		t.Fatalf("untoggle irrigate: %v", err)
	}
	if _, present := s.Profile().CompletedDates[day]; present {
		t.Fatal("expected entry removed, not set false")
	}
}

func TestToggleTaskCompletionUnknownID(t *testing.T) {
	s := newTestStore(t)
	s.AddTask("Irrigate", "2024-04-01", enums.TaskPriorityHigh)
	if err := s.ToggleTaskCompletion(newUUID(t)); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestReplaceInsightTasksKeepsUserTasks(t *testing.T) {
	s := newTestStore(t)
	day := "2024-04-02"

	user := s.AddTask("Fix fence", day, enums.TaskPriorityLow)
	s.ReplaceInsightTasks([]Task{
		{ID: newUUID(t), Title: "Check irrigation", DueDate: day, Priority: enums.TaskPriorityHigh},
	})
	s.ReplaceInsightTasks([]Task{
		{ID: newUUID(t), Title: "Scout for pests", DueDate: day, Priority: enums.TaskPriorityHigh},
	})

	tasks := s.Profile().Tasks
	if len(tasks) != 2 {
		t.Fatalf("expected user task + one regenerated insight task, got %d", len(tasks))
	}
	if tasks[0].ID != user.ID {
		t.Fatal("user task was touched by insight refresh")
	}
	if tasks[1].Title != "Scout for pests" || tasks[1].Source != enums.TaskSourceInsight {
		t.Fatalf("unexpected regenerated task %+v", tasks[1])
	}
}

func TestLocationCoordsTakePrecedence(t *testing.T) {
	s := newTestStore(t)

	s.SetLocationCoords(33.2, -97.1)
	if got := s.Profile().Location.Authoritative(); got == nil || got.Lat != 33.2 {
		t.Fatalf("expected coordinates authoritative, got %v", got)
	}

	// Text demotes the coordinates for display but keeps them stored.
	s.SetLocationText("Denton County, TX")
	loc := s.Profile().Location
	if loc.Authoritative() != nil {
		t.Fatal("expected text preferred after SetLocationText")
	}
	if loc.Coords == nil {
		t.Fatal("coordinates deleted without an explicit clear")
	}

	s.SetLocationCoords(33.3, -97.0)
	if got := s.Profile().Location.Authoritative(); got == nil || got.Lat != 33.3 {
		t.Fatalf("expected new coordinates authoritative, got %v", got)
	}

	s.ClearLocationCoords()
	if s.Profile().Location.Coords != nil {
		t.Fatal("expected coordinates removed by explicit clear")
	}
}
