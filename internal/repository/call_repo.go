package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"template_purifier/internal/models"

	"github.com/google/uuid"
)

type CallSQLite struct {
	db *sql.DB
}

func NewCallSQLite(db *sql.DB) *CallSQLite { return &CallSQLite{db: db} }

const insertCallSQL = `
		INSERT INTO service_calls (id, called_at, domain, action, data, blocking, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

// Append inserts a service call. If CallID or CalledAt are empty, they’re set.
func (r *CallSQLite) Append(ctx context.Context, c models.ServiceCall) error {
	if c.CallID == "" {
		c.CallID = uuid.NewString()
	}
	if c.CalledAt.IsZero() {
		c.CalledAt = time.Now().UTC()
	} else {
		c.CalledAt = c.CalledAt.UTC()
	}

	var dataPtr *string
	if c.Data != nil {
		b, err := json.Marshal(c.Data)
		if err != nil {
			return fmt.Errorf("marshal call data: %w", err)
		}
		s := string(b)
		dataPtr = &s
	}
	var errPtr *string
	if c.Error != "" {
		errPtr = &c.Error
	}

	_, err := r.db.ExecContext(ctx, insertCallSQL,
		c.CallID,
		c.CalledAt,
		strings.ToLower(strings.TrimSpace(c.Domain)),
		strings.ToLower(strings.TrimSpace(c.Action)),
		dataPtr,
		c.Blocking,
		strings.ToUpper(strings.TrimSpace(c.Status)),
		errPtr,
	)
	return err
}

// List returns calls filtered by [from, to] (inclusive) and/or domain, ordered ASC.
func (r *CallSQLite) List(ctx context.Context, from, to time.Time, domain string) ([]models.ServiceCall, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "called_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "called_at <= ?")
		args = append(args, to.UTC())
	}
	if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
		conds = append(conds, "domain = ?")
		args = append(args, domain)
	}

	q := `SELECT id, called_at, domain, action, data, blocking, status, error FROM service_calls`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY called_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ServiceCall, 0, 64)
	for rows.Next() {
		var (
			c       models.ServiceCall
			dataStr sql.NullString
			errStr  sql.NullString
		)
		if err := rows.Scan(&c.CallID, &c.CalledAt, &c.Domain, &c.Action, &dataStr, &c.Blocking, &c.Status, &errStr); err != nil {
			return nil, err
		}
		c.CalledAt = c.CalledAt.UTC()
		c.Error = errStr.String

		if dataStr.Valid && dataStr.String != "" {
			var data map[string]any
			if err := json.Unmarshal([]byte(dataStr.String), &data); err == nil {
				c.Data = data
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
