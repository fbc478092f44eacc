package progression

import (
	"testing"
)

func TestConfig_RankForLevel(t *testing.T) {
	cfg := NewDefaultConfig()

	tests := []struct {
		level int
		want  string
	}{
		{level: 1, want: "debutant"},
		{level: 10, want: "debutant"},
		{level: 11, want: "jogger"},
		{level: 25, want: "jogger"},
		{level: 26, want: "coureur"},
		{level: 46, want: "athlete"},
		{level: 71, want: "champion"},
		{level: 90, want: "champion"},
		{level: 91, want: "maitre"},
		{level: 250, want: "maitre"},
	}

	for _, tt := range tests {
		if got := cfg.RankForLevel(tt.level); got.ID != tt.want {
			t.Errorf("RankForLevel(%d) = %s, want %s", tt.level, got.ID, tt.want)
		}
	}
}

func TestConfig_NextRank(t *testing.T) {
	cfg := NewDefaultConfig()

	if next := cfg.NextRank(1); next == nil || next.ID != "jogger" {
		t.Errorf("NextRank(1) = %v, want jogger", next)
	}
	if next := cfg.NextRank(70); next == nil || next.ID != "champion" {
		t.Errorf("NextRank(70) = %v, want champion", next)
	}
	if next := cfg.NextRank(91); next != nil {
		t.Errorf("NextRank(91) = %v, want nil at the top", next)
	}
}

func TestConfig_RankIndex(t *testing.T) {
	cfg := NewDefaultConfig()

	if got := cfg.RankIndex("debutant"); got != 0 {
		t.Errorf("RankIndex(debutant) = %d, want 0", got)
	}
	if got := cfg.RankIndex("maitre"); got != 5 {
		t.Errorf("RankIndex(maitre) = %d, want 5", got)
	}
	if got := cfg.RankIndex("bogus"); got != -1 {
		t.Errorf("RankIndex(bogus) = %d, want -1", got)
	}
}

func TestDefaultRanksAscending(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Ranks[0].MinLevel != 1 {
		t.Fatalf("first rank must start at level 1, got %d", cfg.Ranks[0].MinLevel)
	}
	for i := 1; i < len(cfg.Ranks); i++ {
		if cfg.Ranks[i].MinLevel <= cfg.Ranks[i-1].MinLevel {
			t.Errorf("rank ladder not ascending at %s", cfg.Ranks[i].ID)
		}
	}
}
