package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openbracket/arena/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.Mutex
	items map[string]team.Team
}

func NewTeamRepository(seed []team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(seed))
	for _, item := range seed {
		items[item.ID] = cloneTeam(item)
	}

	return &TeamRepository{items: items}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}

	return cloneTeam(item), true, nil
}

func (r *TeamRepository) ListByCompetition(_ context.Context, competitionID string) ([]team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]team.Team, 0)
	for _, item := range r.items {
		if item.CompetitionID == competitionID {
			out = append(out, cloneTeam(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *TeamRepository) Create(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Version = 1
	r.items[item.ID] = cloneTeam(item)
	return nil
}

// Save is the compare-and-swap write: it only lands while the stored
// version still matches the version the caller read.
func (r *TeamRepository) Save(_ context.Context, item team.Team) (team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[item.ID]
	if !ok {
		return team.Team{}, team.ErrVersionConflict
	}
	if current.Version != item.Version {
		return team.Team{}, team.ErrVersionConflict
	}

	item.Version++
	r.items[item.ID] = cloneTeam(item)

	return cloneTeam(item), nil
}

func cloneTeam(t team.Team) team.Team {
	copied := t
	copied.Members = append([]team.Member(nil), t.Members...)
	copied.RequiredRoles = append([]string(nil), t.RequiredRoles...)
	return copied
}
