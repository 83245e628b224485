package cache

import (
	"context"
	"fmt"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/platform/cache"
)

const competitionListKey = "competitions:list"

// CompetitionRepository wraps another competition repository with a TTL
// cache. Competitions change rarely next to how often the window check
// reads them, so reads are served from the cache and writes invalidate it.
type CompetitionRepository struct {
	next  competition.Repository
	store *cache.Store
}

func NewCompetitionRepository(next competition.Repository, store *cache.Store) *CompetitionRepository {
	return &CompetitionRepository{
		next:  next,
		store: store,
	}
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	value, err := r.store.GetOrLoad(ctx, competitionListKey, func(ctx context.Context) (any, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	items, ok := value.([]competition.Competition)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value for %s", competitionListKey)
	}

	return items, nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	type lookup struct {
		item  competition.Competition
		found bool
	}

	value, err := r.store.GetOrLoad(ctx, competitionKey(competitionID), func(ctx context.Context) (any, error) {
		item, found, err := r.next.GetByID(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return lookup{item: item, found: found}, nil
	})
	if err != nil {
		return competition.Competition{}, false, err
	}

	result, ok := value.(lookup)
	if !ok {
		return competition.Competition{}, false, fmt.Errorf("unexpected cached value for competition %s", competitionID)
	}

	return result.item, result.found, nil
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}

	r.store.Delete(ctx, competitionListKey)
	r.store.Delete(ctx, competitionKey(item.ID))
	return nil
}

func (r *CompetitionRepository) UpdateStatus(ctx context.Context, competitionID string, status competition.Status) error {
	if err := r.next.UpdateStatus(ctx, competitionID, status); err != nil {
		return err
	}

	r.store.Delete(ctx, competitionListKey)
	r.store.Delete(ctx, competitionKey(competitionID))
	return nil
}

func competitionKey(competitionID string) string {
	return "competitions:" + competitionID
}
