// Package storage provides SQLite-based persistence for solo runs, the local
// best-score leaderboard, and multiplayer race results.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// SoloScore is one recorded solo run.
type SoloScore struct {
	ID        int64
	ThemeID   string
	Score     int
	CreatedAt time.Time
}

// BestEntry is one leaderboard row: a player's best score ever.
type BestEntry struct {
	PlayerID    string
	DisplayName string
	BestScore   int
	UpdatedAt   time.Time
}

// RaceResult is one player's row in a finished multiplayer race.
type RaceResult struct {
	ID          int64
	LobbyCode   string
	ThemeID     string
	PlayerID    string
	DisplayName string
	Score       int
	Rank        int
	Survived    bool
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS solo_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			theme_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_solo_scores_theme ON solo_scores(theme_id, score DESC);

		CREATE TABLE IF NOT EXISTS leaderboard (
			player_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			best_score INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_leaderboard_best ON leaderboard(best_score DESC);

		CREATE TABLE IF NOT EXISTS race_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lobby_code TEXT NOT NULL,
			theme_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			rank INTEGER NOT NULL,
			survived INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_race_results_code ON race_results(lobby_code);
		CREATE INDEX IF NOT EXISTS idx_race_results_player ON race_results(player_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSoloScore records a solo run. Returns the ID of the inserted record.
func (s *Store) SaveSoloScore(themeID string, score int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO solo_scores (theme_id, score) VALUES (?, ?)",
		themeID, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// TopSoloScores retrieves the top N solo runs for a theme, best first.
func (s *Store) TopSoloScores(themeID string, limit int) ([]SoloScore, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, theme_id, score, created_at
		 FROM solo_scores
		 WHERE theme_id = ?
		 ORDER BY score DESC
		 LIMIT ?`,
		themeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []SoloScore
	for rows.Next() {
		var e SoloScore
		var createdAt any
		if err := rows.Scan(&e.ID, &e.ThemeID, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// SoloHighScore returns the best solo score for a theme, 0 if none exist.
func (s *Store) SoloHighScore(themeID string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM solo_scores WHERE theme_id = ?",
		themeID,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// ClearSoloScores deletes all solo runs for a theme.
func (s *Store) ClearSoloScores(themeID string) error {
	_, err := s.db.Exec("DELETE FROM solo_scores WHERE theme_id = ?", themeID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SubmitBest upserts a player's leaderboard entry, keeping the maximum of
// the stored and submitted score.
func (s *Store) SubmitBest(playerID, displayName string, score int) error {
	_, err := s.db.Exec(
		`INSERT INTO leaderboard (player_id, display_name, best_score, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(player_id) DO UPDATE SET
			display_name = excluded.display_name,
			best_score = MAX(best_score, excluded.best_score),
			updated_at = CURRENT_TIMESTAMP`,
		playerID, displayName, score,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot submit best score: %w", err)
	}
	return nil
}

// TopPlayers retrieves the leaderboard, best score first.
func (s *Store) TopPlayers(limit int) ([]BestEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT player_id, display_name, best_score, updated_at
		 FROM leaderboard
		 ORDER BY best_score DESC, player_id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []BestEntry
	for rows.Next() {
		var e BestEntry
		var updatedAt any
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.BestScore, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.UpdatedAt = parseTimestamp(updatedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// BestOf returns a player's leaderboard entry, nil if absent.
func (s *Store) BestOf(playerID string) (*BestEntry, error) {
	var e BestEntry
	var updatedAt any
	err := s.db.QueryRow(
		`SELECT player_id, display_name, best_score, updated_at
		 FROM leaderboard WHERE player_id = ?`,
		playerID,
	).Scan(&e.PlayerID, &e.DisplayName, &e.BestScore, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player best: %w", err)
	}
	e.UpdatedAt = parseTimestamp(updatedAt)
	return &e, nil
}

// SaveRaceResults records every row of a finished race in one transaction.
func (s *Store) SaveRaceResults(results []RaceResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range results {
		if _, err := tx.Exec(
			`INSERT INTO race_results
			 (lobby_code, theme_id, player_id, display_name, score, rank, survived)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.LobbyCode, r.ThemeID, r.PlayerID, r.DisplayName, r.Score, r.Rank, boolToInt(r.Survived),
		); err != nil {
			return fmt.Errorf("storage: cannot save race result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit race results: %w", err)
	}
	return nil
}

// RecentRaces retrieves the most recent race rows, newest first.
func (s *Store) RecentRaces(limit int) ([]RaceResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, lobby_code, theme_id, player_id, display_name, score, rank, survived, created_at
		 FROM race_results
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query race results: %w", err)
	}
	defer rows.Close()

	return scanRaceResults(rows)
}

// PlayerRaceHistory retrieves race rows for one player, newest first.
func (s *Store) PlayerRaceHistory(playerID string, limit int) ([]RaceResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, lobby_code, theme_id, player_id, display_name, score, rank, survived, created_at
		 FROM race_results
		 WHERE player_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player races: %w", err)
	}
	defer rows.Close()

	return scanRaceResults(rows)
}

func scanRaceResults(rows *sql.Rows) ([]RaceResult, error) {
	var results []RaceResult
	for rows.Next() {
		var r RaceResult
		var createdAt any
		var survived int
		if err := rows.Scan(
			&r.ID, &r.LobbyCode, &r.ThemeID, &r.PlayerID, &r.DisplayName,
			&r.Score, &r.Rank, &survived, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Survived = survived != 0
		r.CreatedAt = parseTimestamp(createdAt)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return results, nil
}

// parseTimestamp handles both time.Time and string datetime columns.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
