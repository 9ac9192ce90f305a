package views

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kartoza/recession-dashboard/internal/forecast"
	"github.com/kartoza/recession-dashboard/internal/projection"
)

// ErrNotFound is returned for unknown view IDs
var ErrNotFound = errors.New("view not found")

// timestampLayout is fixed width so stored timestamps sort lexically
const timestampLayout = "2006-01-02T15:04:05.000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS views (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	horizon     TEXT NOT NULL,
	models      TEXT NOT NULL,
	view        TEXT NOT NULL,
	period      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`

// View is a saved dashboard selection. A nil model list means "every model
// in whatever payload is loaded when the view is applied".
type View struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Selection   projection.Selection `json:"selection"`
	CreatedAt   string               `json:"createdAt"`
	UpdatedAt   string               `json:"updatedAt"`
}

// Check validates and normalizes the parts of a selection that do not
// depend on a payload
func (v *View) Check() error {
	if v.Selection.Horizon != "" {
		h, err := forecast.ParseHorizon(string(v.Selection.Horizon))
		if err != nil {
			return err
		}
		v.Selection.Horizon = h
	}
	if v.Selection.View != "" {
		mode, err := projection.ParseView(string(v.Selection.View))
		if err != nil {
			return err
		}
		v.Selection.View = mode
	}
	if v.Selection.Period != "" {
		if _, err := projection.LookupPeriod(v.Selection.Period); err != nil {
			return err
		}
	}
	return nil
}

// SelectionFor resolves the saved selection against a payload
func (v *View) SelectionFor(p *forecast.Payload) projection.Selection {
	sel := v.Selection
	if sel.Models == nil {
		sel.Models = p.ModelIDs()
	}
	return sel
}

// Store handles saved view persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the views database
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open views database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to views database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create views table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns all views, newest first
func (s *Store) List() ([]*View, error) {
	rows, err := s.db.Query(`SELECT id, title, description, horizon, models, view, period, created_at, updated_at
		FROM views ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	defer rows.Close()

	views := make([]*View, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Get retrieves a view by ID
func (s *Store) Get(id string) (*View, error) {
	row := s.db.QueryRow(`SELECT id, title, description, horizon, models, view, period, created_at, updated_at
		FROM views WHERE id = ?`, id)
	v, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v, err
}

// Create stores a new view, assigning its ID and timestamps
func (s *Store) Create(v *View) (*View, error) {
	if err := v.Check(); err != nil {
		return nil, err
	}

	v.ID = uuid.New().String()
	now := s.now().UTC().Format(timestampLayout)
	v.CreatedAt = now
	v.UpdatedAt = now

	// Set defaults if not provided
	if v.Title == "" {
		v.Title = "Untitled view"
	}
	if v.Selection.Horizon == "" {
		v.Selection.Horizon = projection.DefaultHorizon
	}
	if v.Selection.View == "" {
		v.Selection.View = projection.ViewCurrent
	}
	if v.Selection.Period == "" {
		v.Selection.Period = projection.DefaultPeriod
	}

	models, err := json.Marshal(v.Selection.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal models: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO views (id, title, description, horizon, models, view, period, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Title, v.Description, string(v.Selection.Horizon), string(models),
		string(v.Selection.View), v.Selection.Period, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert view: %w", err)
	}
	return v, nil
}

// Update applies the non-empty fields of updates to an existing view
func (s *Store) Update(id string, updates *View) (*View, error) {
	if err := updates.Check(); err != nil {
		return nil, err
	}
	v, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	// Apply updates
	if updates.Title != "" {
		v.Title = updates.Title
	}
	if updates.Description != "" {
		v.Description = updates.Description
	}
	if updates.Selection.Horizon != "" {
		v.Selection.Horizon = updates.Selection.Horizon
	}
	if updates.Selection.View != "" {
		v.Selection.View = updates.Selection.View
	}
	if updates.Selection.Period != "" {
		v.Selection.Period = updates.Selection.Period
	}
	if updates.Selection.Models != nil {
		v.Selection.Models = updates.Selection.Models
	}
	v.UpdatedAt = s.now().UTC().Format(timestampLayout)

	models, err := json.Marshal(v.Selection.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal models: %w", err)
	}

	_, err = s.db.Exec(`UPDATE views SET title = ?, description = ?, horizon = ?, models = ?, view = ?, period = ?, updated_at = ?
		WHERE id = ?`,
		v.Title, v.Description, string(v.Selection.Horizon), string(models),
		string(v.Selection.View), v.Selection.Period, v.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update view: %w", err)
	}
	return v, nil
}

// Delete removes a view
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM views WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanView(row scanner) (*View, error) {
	var (
		v       View
		horizon string
		models  string
		mode    string
	)
	err := row.Scan(&v.ID, &v.Title, &v.Description, &horizon, &models, &mode,
		&v.Selection.Period, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read view: %w", err)
	}
	v.Selection.Horizon = forecast.Horizon(horizon)
	v.Selection.View = projection.View(mode)
	if err := json.Unmarshal([]byte(models), &v.Selection.Models); err != nil {
		return nil, fmt.Errorf("failed to parse models for view %s: %w", v.ID, err)
	}
	return &v, nil
}
