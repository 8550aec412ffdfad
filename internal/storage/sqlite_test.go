package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenCreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestSoloScores(t *testing.T) {
	store := openTestStore(t)

	for _, score := range []int{100, 50, 200} {
		if _, err := store.SaveSoloScore("classic", score); err != nil {
			t.Fatalf("SaveSoloScore() failed: %v", err)
		}
	}
	if _, err := store.SaveSoloScore("arctic", 500); err != nil {
		t.Fatalf("SaveSoloScore() failed: %v", err)
	}

	scores, err := store.TopSoloScores("classic", 10)
	if err != nil {
		t.Fatalf("TopSoloScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}
	if scores[0].Score != 200 || scores[1].Score != 100 || scores[2].Score != 50 {
		t.Errorf("Scores not sorted descending: %v", scores)
	}

	arctic, err := store.TopSoloScores("arctic", 10)
	if err != nil {
		t.Fatalf("TopSoloScores() failed: %v", err)
	}
	if len(arctic) != 1 {
		t.Errorf("Expected 1 arctic score, got %d", len(arctic))
	}
}

func TestSoloHighScore(t *testing.T) {
	store := openTestStore(t)

	high, err := store.SoloHighScore("classic")
	if err != nil {
		t.Fatalf("SoloHighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score of 0 for empty theme, got %d", high)
	}

	store.SaveSoloScore("classic", 100)
	store.SaveSoloScore("classic", 300)
	store.SaveSoloScore("classic", 200)

	high, err = store.SoloHighScore("classic")
	if err != nil {
		t.Fatalf("SoloHighScore() failed: %v", err)
	}
	if high != 300 {
		t.Errorf("Expected high score of 300, got %d", high)
	}
}

func TestClearSoloScores(t *testing.T) {
	store := openTestStore(t)

	store.SaveSoloScore("classic", 100)
	store.SaveSoloScore("arctic", 300)

	if err := store.ClearSoloScores("classic"); err != nil {
		t.Fatalf("ClearSoloScores() failed: %v", err)
	}

	classic, _ := store.TopSoloScores("classic", 10)
	if len(classic) != 0 {
		t.Errorf("Expected 0 classic scores after clear, got %d", len(classic))
	}
	arctic, _ := store.TopSoloScores("arctic", 10)
	if len(arctic) != 1 {
		t.Error("Arctic scores should not be affected by clearing classic")
	}
}

func TestSubmitBestKeepsMaximum(t *testing.T) {
	store := openTestStore(t)

	if err := store.SubmitBest("p1", "Ann", 10); err != nil {
		t.Fatalf("SubmitBest() failed: %v", err)
	}
	// A worse score must not lower the stored best.
	if err := store.SubmitBest("p1", "Ann", 5); err != nil {
		t.Fatalf("SubmitBest() failed: %v", err)
	}

	entry, err := store.BestOf("p1")
	if err != nil {
		t.Fatalf("BestOf() failed: %v", err)
	}
	if entry == nil || entry.BestScore != 10 {
		t.Errorf("Expected best of 10, got %+v", entry)
	}

	if err := store.SubmitBest("p1", "Annie", 25); err != nil {
		t.Fatalf("SubmitBest() failed: %v", err)
	}
	entry, _ = store.BestOf("p1")
	if entry.BestScore != 25 || entry.DisplayName != "Annie" {
		t.Errorf("Expected best 25 with renamed player, got %+v", entry)
	}
}

func TestTopPlayersOrdering(t *testing.T) {
	store := openTestStore(t)

	store.SubmitBest("p1", "Ann", 10)
	store.SubmitBest("p2", "Bob", 30)
	store.SubmitBest("p3", "Cid", 20)

	top, err := store.TopPlayers(2)
	if err != nil {
		t.Fatalf("TopPlayers() failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 entries with limit, got %d", len(top))
	}
	if top[0].PlayerID != "p2" || top[1].PlayerID != "p3" {
		t.Errorf("Leaderboard not sorted by best score: %v", top)
	}
}

func TestBestOfMissingPlayer(t *testing.T) {
	store := openTestStore(t)

	entry, err := store.BestOf("nobody")
	if err != nil {
		t.Fatalf("BestOf() failed: %v", err)
	}
	if entry != nil {
		t.Errorf("Expected nil for missing player, got %+v", entry)
	}
}

func TestSaveRaceResults(t *testing.T) {
	store := openTestStore(t)

	results := []RaceResult{
		{LobbyCode: "ABC234", ThemeID: "classic", PlayerID: "p1", DisplayName: "Ann", Score: 5, Rank: 1, Survived: true},
		{LobbyCode: "ABC234", ThemeID: "classic", PlayerID: "p2", DisplayName: "Bob", Score: 20, Rank: 2},
		{LobbyCode: "ABC234", ThemeID: "classic", PlayerID: "p3", DisplayName: "Cid", Score: 10, Rank: 3},
	}
	if err := store.SaveRaceResults(results); err != nil {
		t.Fatalf("SaveRaceResults() failed: %v", err)
	}

	recent, err := store.RecentRaces(10)
	if err != nil {
		t.Fatalf("RecentRaces() failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(recent))
	}

	history, err := store.PlayerRaceHistory("p2", 10)
	if err != nil {
		t.Fatalf("PlayerRaceHistory() failed: %v", err)
	}
	if len(history) != 1 || history[0].Rank != 2 || history[0].Survived {
		t.Errorf("Unexpected history for p2: %v", history)
	}
}
