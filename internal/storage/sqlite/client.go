// Package sqlite persists completed analysis runs so later runs can compute
// adoption trends against the most recent summary.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		window_start INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		engineer_count INTEGER NOT NULL,
		mean_score REAL NOT NULL,
		summary TEXT NOT NULL,
		scores TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON analysis_runs(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertRun(result *model.RunResult) error {
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	scoresJSON, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}

	degraded := 0
	if result.Degraded {
		degraded = 1
	}

	query := `
		INSERT INTO analysis_runs (id, window_start, window_end, strategy, degraded,
			engineer_count, mean_score, summary, scores, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.Exec(
		query,
		result.RunID,
		result.Window.Start.Unix(),
		result.Window.End.Unix(),
		result.Strategy,
		degraded,
		len(result.Scores),
		result.Summary.MeanScore,
		string(summaryJSON),
		string(scoresJSON),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	logger.Info("Run persisted",
		zap.String("run_id", result.RunID),
		zap.Int("engineers", len(result.Scores)),
		zap.Bool("degraded", result.Degraded),
	)

	return nil
}

// LatestSummary returns the most recently persisted summary, or nil when no
// run has completed yet.
func (c *Client) LatestSummary() (*model.InsightSummary, error) {
	query := `SELECT summary FROM analysis_runs ORDER BY created_at DESC, id DESC LIMIT 1`

	var summaryJSON string
	err := c.db.QueryRow(query).Scan(&summaryJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest summary: %w", err)
	}

	var summary model.InsightSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	return &summary, nil
}

func (c *Client) GetRun(runID string) (*model.RunResult, error) {
	query := `SELECT id, window_start, window_end, strategy, degraded, summary, scores FROM analysis_runs WHERE id = ?`

	var result model.RunResult
	var windowStart, windowEnd int64
	var degraded int
	var summaryJSON, scoresJSON string

	err := c.db.QueryRow(query, runID).Scan(
		&result.RunID,
		&windowStart,
		&windowEnd,
		&result.Strategy,
		&degraded,
		&summaryJSON,
		&scoresJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	result.Window.Start = time.Unix(windowStart, 0).UTC()
	result.Window.End = time.Unix(windowEnd, 0).UTC()
	result.Degraded = degraded == 1

	if err := json.Unmarshal([]byte(summaryJSON), &result.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(scoresJSON), &result.Scores); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}

	return &result, nil
}

// RunListing is one row of run history, without the per-engineer payload.
type RunListing struct {
	RunID         string       `json:"run_id"`
	Window        model.Window `json:"window"`
	Strategy      string       `json:"strategy"`
	Degraded      bool         `json:"degraded"`
	EngineerCount int          `json:"engineer_count"`
	MeanScore     float64      `json:"mean_score"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (c *Client) ListRuns(limit int) ([]RunListing, error) {
	query := `
		SELECT id, window_start, window_end, strategy, degraded, engineer_count, mean_score, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var listings []RunListing
	for rows.Next() {
		var l RunListing
		var windowStart, windowEnd, createdAt int64
		var degraded int

		err := rows.Scan(&l.RunID, &windowStart, &windowEnd, &l.Strategy, &degraded, &l.EngineerCount, &l.MeanScore, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		l.Window.Start = time.Unix(windowStart, 0).UTC()
		l.Window.End = time.Unix(windowEnd, 0).UTC()
		l.Degraded = degraded == 1
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		listings = append(listings, l)
	}

	return listings, rows.Err()
}
