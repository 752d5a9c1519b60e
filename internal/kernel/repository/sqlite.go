// Package repository хранит сохраненные планы (снимки элементов) в SQLite.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/models"
)

//go:embed migrations/001_init_plans.sql
var initSQL string

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Plan: заголовок сохраненного плана.
type Plan struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Elements  int    `json:"elements"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, initSQL); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// SavePlan заменяет содержимое плана целиком, одной транзакцией.
func (r *Repository) SavePlan(ctx context.Context, id, name string, snapshots []models.Snapshot) error {
	if id == "" {
		return kerr.New(kerr.KindInvalidParams, "plan id required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := r.now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
        INSERT INTO plans (id, name, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
    `, id, name, ts, ts)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_elements WHERE plan_id = ?`, id); err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}

	for i, s := range snapshots {
		s.Geometry = nil
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode %s: %w", s.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO plan_elements (plan_id, id, type, position, data)
            VALUES (?, ?, ?, ?, ?)
        `, id, s.ID, string(s.Type), i, string(data))
		if err != nil {
			return fmt.Errorf("insert %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// LoadPlan возвращает снимки в порядке сохранения.
func (r *Repository) LoadPlan(ctx context.Context, id string) ([]models.Snapshot, error) {
	if _, err := r.GetPlan(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT data FROM plan_elements
        WHERE plan_id = ?
        ORDER BY position
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var s models.Snapshot
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("decode element of plan %s: %w", id, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) GetPlan(ctx context.Context, id string) (*Plan, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT p.id, p.name, p.created_at, p.updated_at,
               (SELECT COUNT(*) FROM plan_elements e WHERE e.plan_id = p.id)
        FROM plans p
        WHERE p.id = ?
    `, id)

	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.Elements); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kerr.New(kerr.KindElementNotFound, "plan not found").With("planId", id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT p.id, p.name, p.created_at, p.updated_at,
               (SELECT COUNT(*) FROM plan_elements e WHERE e.plan_id = p.id)
        FROM plans p
        ORDER BY p.id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.Elements); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) DeletePlan(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_elements WHERE plan_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return kerr.New(kerr.KindElementNotFound, "plan not found").With("planId", id)
	}
	return tx.Commit()
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
