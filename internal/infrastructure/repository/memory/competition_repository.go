package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openbracket/arena/internal/domain/competition"
)

type CompetitionRepository struct {
	mu    sync.RWMutex
	items map[string]competition.Competition
}

func NewCompetitionRepository(seed []competition.Competition) *CompetitionRepository {
	items := make(map[string]competition.Competition, len(seed))
	for _, item := range seed {
		items[item.ID] = item
	}

	return &CompetitionRepository{items: items}
}

func (r *CompetitionRepository) List(_ context.Context) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]competition.Competition, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *CompetitionRepository) GetByID(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[competitionID]
	if !ok {
		return competition.Competition{}, false, nil
	}

	return item, true, nil
}

func (r *CompetitionRepository) Create(_ context.Context, item competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	return nil
}

func (r *CompetitionRepository) UpdateStatus(_ context.Context, competitionID string, status competition.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[competitionID]
	if !ok {
		return nil
	}
	item.Status = status
	r.items[competitionID] = item

	return nil
}
