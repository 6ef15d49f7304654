package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

// Repository is the document persistence surface the service depends on.
type Repository interface {
	Save(ctx context.Context, accountID string, fields map[string]any, merge bool) error
	Load(ctx context.Context, accountID string) (map[string]any, bool, error)
}

// Update carries a partial profile edit. Nil pointer fields are untouched;
// the Clear flags remove optional data outright.
type Update struct {
	Name     *string
	FarmName *string

	Latitude     *float64
	Longitude    *float64
	LocationText *string
	ClearCoords  bool

	AreaValue *float64
	AreaUnit  *enums.AreaUnit
	ClearArea bool

	SoilTexture *enums.SoilTexture
	Track       *enums.Track
}

// Service exposes profile state operations. Every mutation persists a
// snapshot taken at the mutation, so a later edit can never leak into an
// earlier save.
type Service interface {
	GetProfile(ctx context.Context, accountID string) (*FarmProfile, error)
	UpdateProfile(ctx context.Context, accountID string, update Update) (*FarmProfile, error)
	SetBoundary(ctx context.Context, accountID string, boundary *geometry.Polygon) (*FarmProfile, error)
	ToggleCollectionMember(ctx context.Context, accountID, collection, value string) (*FarmProfile, error)
	CompleteOnboarding(ctx context.Context, accountID string) (*FarmProfile, error)
	ListTasks(ctx context.Context, accountID string) ([]Task, error)
	AddTask(ctx context.Context, accountID, title, dueDate string, priority enums.TaskPriority) (Task, error)
	ToggleTask(ctx context.Context, accountID string, taskID uuid.UUID) (Task, error)
	ReplaceInsightTasks(ctx context.Context, accountID string, tasks []Task) (*FarmProfile, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ServiceOption configures optional service behavior.
type ServiceOption func(*service)

// WithServiceClock overrides the time source, used by tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, logg *logger.Logger, opts ...ServiceOption) Service {
	s := &service{
		repo:  repo,
		logg:  logg,
		now:   time.Now,
		locks: map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockAccount serializes all operations for one account. Different accounts
// proceed in parallel.
func (s *service) lockAccount(accountID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *service) GetProfile(ctx context.Context, accountID string) (*FarmProfile, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	store, err := s.loadStore(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(), nil
}

func (s *service) UpdateProfile(ctx context.Context, accountID string, update Update) (*FarmProfile, error) {
	return s.mutate(ctx, accountID, func(store *Store) error {
		p := store.Profile()

		if update.Name != nil || update.FarmName != nil {
			name := p.Name
			farmName := p.FarmName
			if update.Name != nil {
				name = *update.Name
			}
			if update.FarmName != nil {
				farmName = *update.FarmName
			}
			store.SetIdentity(name, farmName)
		}

		if update.ClearCoords {
			store.ClearLocationCoords()
		}
		if update.Latitude != nil && update.Longitude != nil {
			store.SetLocationCoords(*update.Latitude, *update.Longitude)
		} else if update.Latitude != nil || update.Longitude != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be supplied together")
		}
		if update.LocationText != nil {
			store.SetLocationText(*update.LocationText)
		}

		if update.ClearArea {
			store.SetArea(nil)
		}
		if update.AreaValue != nil || update.AreaUnit != nil {
			if update.AreaValue == nil || update.AreaUnit == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "area value and unit must be supplied together")
			}
			store.SetArea(&AreaMeasurement{Value: *update.AreaValue, Unit: *update.AreaUnit})
		}

		if update.SoilTexture != nil {
			store.SetSoilTexture(*update.SoilTexture)
		}
		if update.Track != nil {
			if err := store.SetTrack(*update.Track); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "track is frozen after onboarding")
			}
		}
		return nil
	})
}

func (s *service) SetBoundary(ctx context.Context, accountID string, boundary *geometry.Polygon) (*FarmProfile, error) {
	return s.mutate(ctx, accountID, func(store *Store) error {
		if err := store.SetBoundary(boundary); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid boundary geometry")
		}
		return nil
	})
}

func (s *service) ToggleCollectionMember(ctx context.Context, accountID, collection, value string) (*FarmProfile, error) {
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection value is required")
	}
	// An unknown collection name is a programmer error: the store logs it and
	// mutates nothing, and the caller still gets the current profile back.
	return s.mutate(ctx, accountID, func(store *Store) error {
		store.ToggleSetMember(ctx, collection, value)
		return nil
	})
}

func (s *service) CompleteOnboarding(ctx context.Context, accountID string) (*FarmProfile, error) {
	return s.mutate(ctx, accountID, func(store *Store) error {
		if err := store.MarkOnboardingComplete(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "onboarding already completed")
		}
		return nil
	})
}

func (s *service) ListTasks(ctx context.Context, accountID string) ([]Task, error) {
	snapshot, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return snapshot.Tasks, nil
}

func (s *service) AddTask(ctx context.Context, accountID, title, dueDate string, priority enums.TaskPriority) (Task, error) {
	if title == "" {
		return Task{}, pkgerrors.New(pkgerrors.CodeValidation, "task title is required")
	}
	if _, err := time.Parse(DayKey, dueDate); err != nil {
		return Task{}, pkgerrors.New(pkgerrors.CodeValidation, "due date must be YYYY-MM-DD")
	}
	if !priority.IsValid() {
		priority = enums.TaskPriorityMedium
	}

	var created Task
	_, err := s.mutate(ctx, accountID, func(store *Store) error {
		created = store.AddTask(title, dueDate, priority)
		return nil
	})
	return created, err
}

func (s *service) ToggleTask(ctx context.Context, accountID string, taskID uuid.UUID) (Task, error) {
	var toggled Task
	_, err := s.mutate(ctx, accountID, func(store *Store) error {
		if err := store.ToggleTaskCompletion(taskID); err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "task not found")
			}
			return err
		}
		toggled = *store.Profile().TaskByID(taskID)
		return nil
	})
	return toggled, err
}

func (s *service) ReplaceInsightTasks(ctx context.Context, accountID string, tasks []Task) (*FarmProfile, error) {
	return s.mutate(ctx, accountID, func(store *Store) error {
		store.ReplaceInsightTasks(tasks)
		return nil
	})
}

// mutate runs fn against the account's store under the account lock, then
// persists the full document built from the post-mutation snapshot.
func (s *service) mutate(ctx context.Context, accountID string, fn func(*Store) error) (*FarmProfile, error) {
	unlock := s.lockAccount(accountID)
	defer unlock()

	store, err := s.loadStore(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := fn(store); err != nil {
		return nil, err
	}

	snapshot := store.Snapshot()
	doc, err := ToSerializable(snapshot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing profile")
	}
	// A full replace, not a merge: fields whose value became empty are
	// omitted from the document and must disappear from storage.
	if err := s.repo.Save(ctx, accountID, doc, false); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting profile")
	}
	return snapshot, nil
}

func (s *service) loadStore(ctx context.Context, accountID string) (*Store, error) {
	if accountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	raw, found, err := s.repo.Load(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading profile")
	}
	if !found {
		return NewStore(accountID, WithClock(s.now), WithLogger(s.logg)), nil
	}

	p, warnings := FromSerializable(accountID, raw)
	for _, w := range warnings {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"account_id": accountID,
				"field":      w.Field,
				"reason":     w.Message,
			}), "profile field degraded on load")
		}
	}
	return NewStoreFrom(p, WithClock(s.now), WithLogger(s.logg)), nil
}
