package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openbracket/arena/internal/domain/application"
)

type ApplicationRepository struct {
	mu            sync.Mutex
	applications  map[string]application.Application
	registrations map[string]application.Registration
	now           func() time.Time
}

func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{
		applications:  make(map[string]application.Application),
		registrations: make(map[string]application.Registration),
		now:           time.Now,
	}
}

func (r *ApplicationRepository) GetByID(_ context.Context, applicationID string) (application.Application, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.applications[applicationID]
	if !ok {
		return application.Application{}, false, nil
	}

	return item, true, nil
}

func (r *ApplicationRepository) ListByCompetition(_ context.Context, competitionID string) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]application.Application, 0)
	for _, item := range r.applications {
		if item.CompetitionID == competitionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *ApplicationRepository) ActiveByTeam(_ context.Context, teamID, competitionID string) (application.Application, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.applications {
		if item.TeamID == teamID && item.CompetitionID == competitionID && item.Status != application.StatusRejected {
			return item, true, nil
		}
	}

	return application.Application{}, false, nil
}

func (r *ApplicationRepository) ActiveBySubmitter(_ context.Context, submitterID, competitionID string) (application.Application, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.applications {
		if item.TeamID == "" && item.SubmitterID == submitterID && item.CompetitionID == competitionID && item.Status != application.StatusRejected {
			return item, true, nil
		}
	}

	return application.Application{}, false, nil
}

func (r *ApplicationRepository) Create(_ context.Context, item application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.applications[item.ID] = item
	return nil
}

// Decide moves a pending application into a terminal state. The bool
// reports whether this call won the transition.
func (r *ApplicationRepository) Decide(_ context.Context, applicationID string, status application.Status, decidedBy string) (application.Application, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.applications[applicationID]
	if !ok {
		return application.Application{}, false, nil
	}
	if item.Status != application.StatusPending {
		return item, false, nil
	}

	decidedAt := r.now().UTC()
	item.Status = status
	item.DecidedBy = decidedBy
	item.DecidedAt = &decidedAt
	r.applications[applicationID] = item

	return item, true, nil
}

func (r *ApplicationRepository) GetRegistrationByID(_ context.Context, registrationID string) (application.Registration, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.registrations[registrationID]
	if !ok {
		return application.Registration{}, false, nil
	}

	return item, true, nil
}

func (r *ApplicationRepository) GetRegistrationByApplication(_ context.Context, applicationID string) (application.Registration, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.registrations {
		if item.ApplicationID == applicationID {
			return item, true, nil
		}
	}

	return application.Registration{}, false, nil
}

func (r *ApplicationRepository) ListRegistrationsByCompetition(_ context.Context, competitionID string) ([]application.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]application.Registration, 0)
	for _, item := range r.registrations {
		if item.CompetitionID == competitionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *ApplicationRepository) CreateRegistration(_ context.Context, item application.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Version = 1
	r.registrations[item.ID] = item
	return nil
}

// SaveRegistration is the compare-and-swap write for registrations.
func (r *ApplicationRepository) SaveRegistration(_ context.Context, item application.Registration) (application.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.registrations[item.ID]
	if !ok {
		return application.Registration{}, application.ErrVersionConflict
	}
	if current.Version != item.Version {
		return application.Registration{}, application.ErrVersionConflict
	}

	item.Version++
	r.registrations[item.ID] = item

	return item, nil
}
