package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"template_purifier/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	upsertStateSQL = `
		INSERT INTO entity_states (entity_id, state, attributes, last_changed, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			state=excluded.state,
			attributes=excluded.attributes,
			last_changed=excluded.last_changed,
			last_updated=excluded.last_updated
	`

	selectStateSQL = `
		SELECT entity_id, state, attributes, last_changed, last_updated
		FROM entity_states WHERE entity_id=?
	`

	selectAllStatesSQL = `
		SELECT entity_id, state, attributes, last_changed, last_updated
		FROM entity_states ORDER BY entity_id ASC
	`
)

var errEmptyEntityID = errors.New("entity id is empty")

// marshalAttributes converts the attribute map to a JSON string; nil maps are stored as NULL.
func marshalAttributes(attrs map[string]any) (*string, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// unmarshalAttributes parses a stored JSON object back into a map.
func unmarshalAttributes(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(s.String), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (models.EntityState, error) {
	var (
		st    models.EntityState
		attrs sql.NullString
	)
	if err := row.Scan(&st.EntityID, &st.State, &attrs, &st.LastChanged, &st.LastUpdated); err != nil {
		return models.EntityState{}, err
	}
	parsed, err := unmarshalAttributes(attrs)
	if err != nil {
		return models.EntityState{}, fmt.Errorf("decode attributes of %q: %w", st.EntityID, err)
	}
	st.Attributes = parsed
	st.LastChanged = st.LastChanged.UTC()
	st.LastUpdated = st.LastUpdated.UTC()
	return st, nil
}

// Get fetches one entity. The bool is false when the entity does not exist.
func (r *StateSQLite) Get(ctx context.Context, entityID string) (models.EntityState, bool, error) {
	st, err := scanState(r.db.QueryRowContext(ctx, selectStateSQL, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EntityState{}, false, nil
		}
		return models.EntityState{}, false, err
	}
	return st, true, nil
}

// List returns every entity ordered by id.
func (r *StateSQLite) List(ctx context.Context) ([]models.EntityState, error) {
	rows, err := r.db.QueryContext(ctx, selectAllStatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.EntityState, 0, 32)
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Set writes an entity and returns what was stored.
// last_changed only moves when the state value changes; last_updated moves on every write.
func (r *StateSQLite) Set(ctx context.Context, s models.EntityState) (models.EntityState, error) {
	s.EntityID = strings.TrimSpace(s.EntityID)
	if s.EntityID == "" {
		return models.EntityState{}, errEmptyEntityID
	}
	attrs, err := marshalAttributes(s.Attributes)
	if err != nil {
		return models.EntityState{}, fmt.Errorf("encode attributes of %q: %w", s.EntityID, err)
	}

	now := s.LastUpdated
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.EntityState{}, fmt.Errorf("begin state write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := scanState(tx.QueryRowContext(ctx, selectStateSQL, s.EntityID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.LastChanged = now
	case err != nil:
		return models.EntityState{}, fmt.Errorf("load state %q: %w", s.EntityID, err)
	case prev.State == s.State:
		s.LastChanged = prev.LastChanged
	default:
		s.LastChanged = now
	}
	s.LastUpdated = now

	if _, err := tx.ExecContext(ctx, upsertStateSQL, s.EntityID, s.State, attrs, s.LastChanged, s.LastUpdated); err != nil {
		return models.EntityState{}, fmt.Errorf("save state %q: %w", s.EntityID, err)
	}
	if err := tx.Commit(); err != nil {
		return models.EntityState{}, fmt.Errorf("commit state %q: %w", s.EntityID, err)
	}
	return s, nil
}
