package memory

import (
	"errors"
	"testing"

	"github.com/openbracket/arena/internal/domain/team"
)

func TestTeamRepository_SaveIsCompareAndSwap(t *testing.T) {
	repo := NewTeamRepository(SeedTeams())

	first, ok, err := repo.GetByID(t.Context(), "spring-nullptr")
	if err != nil || !ok {
		t.Fatalf("get seed team: ok=%t err=%v", ok, err)
	}
	stale := first

	first.Name = "Renamed"
	saved, err := repo.Save(t.Context(), first)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.Version != first.Version+1 {
		t.Fatalf("expected version bump to %d, got %d", first.Version+1, saved.Version)
	}

	// The reader that still holds the old version loses.
	stale.Name = "Stale Rename"
	if _, err := repo.Save(t.Context(), stale); !errors.Is(err, team.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for stale writer, got %v", err)
	}
}

func TestTeamRepository_SaveUnknownTeamConflicts(t *testing.T) {
	repo := NewTeamRepository(nil)

	_, err := repo.Save(t.Context(), team.Team{ID: "ghost", Version: 1})
	if !errors.Is(err, team.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for unknown team, got %v", err)
	}
}

func TestTeamRepository_ReadsAreCopies(t *testing.T) {
	repo := NewTeamRepository(SeedTeams())

	first, _, err := repo.GetByID(t.Context(), "spring-nullptr")
	if err != nil {
		t.Fatalf("get team failed: %v", err)
	}
	first.Members[0].UserID = "mutated"

	second, _, err := repo.GetByID(t.Context(), "spring-nullptr")
	if err != nil {
		t.Fatalf("get team failed: %v", err)
	}
	if second.Members[0].UserID == "mutated" {
		t.Fatalf("expected stored roster unaffected by caller mutation")
	}
}
