package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
)

type memoryRepo struct {
	docs  map[string]map[string]any
	saves int
	fail  error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{docs: map[string]map[string]any{}}
}

func (r *memoryRepo) Save(_ context.Context, accountID string, fields map[string]any, merge bool) error {
	if r.fail != nil {
		return r.fail
	}
	r.saves++
	if merge {
		existing, ok := r.docs[accountID]
		if ok {
			for k, v := range fields {
				existing[k] = v
			}
			return nil
		}
	}
	r.docs[accountID] = fields
	return nil
}

func (r *memoryRepo) Load(_ context.Context, accountID string) (map[string]any, bool, error) {
	doc, ok := r.docs[accountID]
	return doc, ok, nil
}

func strPtr(s string) *string                  { return &s }
func floatPtr(f float64) *float64              { return &f }
func unitPtr(u enums.AreaUnit) *enums.AreaUnit { return &u }

func newTestService(repo Repository) Service {
	clock := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return NewService(repo, nil, WithServiceClock(func() time.Time { return clock }))
}

func TestServiceGetProfileCreatesEmpty(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	p, err := svc.GetProfile(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", p.AccountID)
	assert.False(t, p.OnboardingCompleted)
	assert.Empty(t, p.Tasks)
	// Reads never persist.
	assert.Zero(t, repo.saves)
}

func TestServiceUpdatePersistsSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.UpdateProfile(ctx, "acct-1", Update{
		Name:     strPtr("Maria"),
		FarmName: strPtr("Willow Creek"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", p.Name)
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, "Maria", repo.docs["acct-1"][FieldName])

	// Round trip through storage.
	loaded, err := svc.GetProfile(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Willow Creek", loaded.FarmName)
}

func TestServiceUpdateRejectsLoneCoordinate(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.UpdateProfile(context.Background(), "acct-1", Update{Latitude: floatPtr(33.2)})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceUpdateAreaRequiresBothParts(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.UpdateProfile(context.Background(), "acct-1", Update{AreaValue: floatPtr(12)})
	require.Error(t, err)

	p, err := svc.UpdateProfile(context.Background(), "acct-1", Update{
		AreaValue: floatPtr(12),
		AreaUnit:  unitPtr(enums.AreaUnitHectares),
	})
	require.NoError(t, err)
	require.NotNil(t, p.Area)
	assert.Equal(t, 12.0, p.Area.Value)
}

func TestServiceToggleCollectionUnknownName(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	p, err := svc.ToggleCollectionMember(context.Background(), "acct-1", "favorite_colors", "green")
	require.NoError(t, err)
	assert.Empty(t, p.Collections)
	// The no-op still persists the (unchanged) snapshot; nothing new appears.
	assert.NotContains(t, repo.docs["acct-1"], "favorite_colors")
}

func TestServiceToggleCollectionRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.ToggleCollectionMember(ctx, "acct-1", "crop_types", "tomatoes")
	require.NoError(t, err)
	assert.Equal(t, []string{"tomatoes"}, p.Collections[enums.CollectionCropTypes])

	p, err = svc.ToggleCollectionMember(ctx, "acct-1", "crop_types", "tomatoes")
	require.NoError(t, err)
	assert.NotContains(t, p.Collections, enums.CollectionCropTypes)

	// The emptied collection must vanish from storage, not linger as an
	// empty container.
	assert.NotContains(t, repo.docs["acct-1"], "crop_types")
}

func TestServiceCompleteOnboardingOnce(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	p, err := svc.CompleteOnboarding(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, p.OnboardingCompleted)

	_, err = svc.CompleteOnboarding(ctx, "acct-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.True(t, errors.Is(err, ErrAlreadyCompleted))
}

func TestServiceTaskLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.AddTask(ctx, "acct-1", "Irrigate north field", "2024-04-02", enums.TaskPriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, enums.TaskSourceUser, created.Source)
	assert.False(t, created.Completed)

	toggled, err := svc.ToggleTask(ctx, "acct-1", created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	loaded, err := svc.GetProfile(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, loaded.CompletedDates["2024-04-02"])

	tasks, err := svc.ListTasks(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestServiceToggleUnknownTask(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.ToggleTask(context.Background(), "acct-1", uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceAddTaskValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.AddTask(ctx, "acct-1", "", "2024-04-02", enums.TaskPriorityLow)
	require.Error(t, err)

	_, err = svc.AddTask(ctx, "acct-1", "Scout", "April 2nd", enums.TaskPriorityLow)
	require.Error(t, err)
}

func TestServiceSaveFailureSurfacesError(t *testing.T) {
	repo := newMemoryRepo()
	repo.fail = errors.New("connection refused")
	svc := newTestService(repo)

	_, err := svc.UpdateProfile(context.Background(), "acct-1", Update{Name: strPtr("Maria")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
}

func TestServiceLoadDegradesCorruptFields(t *testing.T) {
	repo := newMemoryRepo()
	repo.docs["acct-1"] = map[string]any{
		FieldName:     "Maria",
		FieldBoundary: "not json at all",
	}
	svc := newTestService(repo)

	p, err := svc.GetProfile(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", p.Name)
	assert.Nil(t, p.Boundary)
}
