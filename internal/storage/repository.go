package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paycycle/internal/core"
	"paycycle/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements the store ports on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ store.SettingsRepository = (*SQLiteRepository)(nil)
	_ store.TokenResolver      = (*SQLiteRepository)(nil)
	_ store.PeriodStore        = (*SQLiteRepository)(nil)
	_ store.SettingsLister     = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// settingsRow is the user_settings table shape before mapping into the
// semantic core type.
type settingsRow struct {
	ID        int64
	UserID    int64
	CycleType string
	PayDay    sql.NullInt64
	Offset    int64
	CreatedAt time.Time
	UpdatedAt sql.NullTime
}

func (row settingsRow) toStore() store.UserSettings {
	s := core.Settings{
		CycleType:        core.CycleType(row.CycleType),
		CycleStartOffset: int(row.Offset),
	}
	if row.PayDay.Valid {
		day := int(row.PayDay.Int64)
		s.PayDay = &day
	}
	out := store.UserSettings{
		ID:        row.ID,
		UserID:    row.UserID,
		Settings:  s,
		CreatedAt: row.CreatedAt,
	}
	if row.UpdatedAt.Valid {
		t := row.UpdatedAt.Time
		out.UpdatedAt = &t
		out.Settings.UpdatedAt = &t
	}
	return out
}

func nullablePayDay(s core.Settings) sql.NullInt64 {
	if s.PayDay == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*s.PayDay), Valid: true}
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID int64) (store.UserSettings, error) {
	var row settingsRow
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, pay_cycle_type, pay_day, cycle_start_offset, created_at, updated_at
		FROM user_settings WHERE user_id = ?`, userID).
		Scan(&row.ID, &row.UserID, &row.CycleType, &row.PayDay, &row.Offset, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.UserSettings{}, store.ErrNotFound
	}
	if err != nil {
		return store.UserSettings{}, fmt.Errorf("get settings for user %d: %w", userID, err)
	}
	return row.toStore(), nil
}

func (r *SQLiteRepository) CreateSettings(ctx context.Context, userID int64, s core.Settings) (store.UserSettings, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, pay_cycle_type, pay_day, cycle_start_offset)
		VALUES (?, ?, ?, ?)`,
		userID, string(s.CycleType), nullablePayDay(s), s.CycleStartOffset)
	if err != nil {
		if isUniqueViolation(err) {
			return store.UserSettings{}, store.ErrAlreadyExists
		}
		return store.UserSettings{}, fmt.Errorf("create settings for user %d: %w", userID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return store.UserSettings{}, fmt.Errorf("settings insert id: %w", err)
	}

	slog.InfoContext(ctx, "Pay cycle settings created",
		"id", id,
		"user_id", userID,
		"cycle_type", string(s.CycleType),
		"cycle_start_offset", s.CycleStartOffset)

	return r.GetSettings(ctx, userID)
}

func (r *SQLiteRepository) UpdateSettings(ctx context.Context, userID int64, s core.Settings) (store.UserSettings, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_settings
		SET pay_cycle_type = ?, pay_day = ?, cycle_start_offset = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`,
		string(s.CycleType), nullablePayDay(s), s.CycleStartOffset, userID)
	if err != nil {
		return store.UserSettings{}, fmt.Errorf("update settings for user %d: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return store.UserSettings{}, fmt.Errorf("settings update result: %w", err)
	}
	if affected == 0 {
		return store.UserSettings{}, store.ErrNotFound
	}

	slog.InfoContext(ctx, "Pay cycle settings updated",
		"user_id", userID,
		"cycle_type", string(s.CycleType),
		"cycle_start_offset", s.CycleStartOffset)

	return r.GetSettings(ctx, userID)
}

func (r *SQLiteRepository) DeleteSettings(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete settings for user %d: %w", userID, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM periods WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete periods for user %d: %w", userID, err)
	}
	slog.InfoContext(ctx, "Pay cycle settings reset", "user_id", userID)
	return nil
}

func (r *SQLiteRepository) ResolveToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_tokens WHERE token = ?`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrUnknownToken
	}
	if err != nil {
		return 0, fmt.Errorf("resolve token: %w", err)
	}
	return userID, nil
}

// SeedToken inserts a user (if absent) and an api token for it. Used by
// the dev bootstrap in the cmd mains.
func (r *SQLiteRepository) SeedToken(ctx context.Context, email, token string) (int64, error) {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (email) VALUES (?)`, email); err != nil {
		return 0, fmt.Errorf("seed user: %w", err)
	}
	var userID int64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&userID); err != nil {
		return 0, fmt.Errorf("lookup seeded user: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO api_tokens (token, user_id) VALUES (?, ?)`, token, userID); err != nil {
		return 0, fmt.Errorf("seed token: %w", err)
	}
	return userID, nil
}

func (r *SQLiteRepository) UpsertPeriods(ctx context.Context, userID int64, periods []core.Period, cycleType core.CycleType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin periods upsert: %w", err)
	}
	defer tx.Rollback()

	for _, p := range periods {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO periods (user_id, period_start, period_end, cycle_type, computed_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id, period_start)
			DO UPDATE SET period_end = excluded.period_end,
			              cycle_type = excluded.cycle_type,
			              computed_at = CURRENT_TIMESTAMP`,
			userID, p.Start, p.End, string(cycleType)); err != nil {
			return fmt.Errorf("upsert period %s: %w", p.Start.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit periods upsert: %w", err)
	}

	slog.InfoContext(ctx, "Periods materialized",
		"user_id", userID,
		"count", len(periods),
		"cycle_type", string(cycleType))

	return nil
}

func (r *SQLiteRepository) ListPeriods(ctx context.Context, userID int64, from, to time.Time) ([]store.MaterializedPeriod, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, period_start, period_end, cycle_type, computed_at
		FROM periods
		WHERE user_id = ? AND period_end > ? AND period_start < ?
		ORDER BY period_start`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list periods for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []store.MaterializedPeriod
	for rows.Next() {
		var (
			mp        store.MaterializedPeriod
			cycleType string
		)
		if err := rows.Scan(&mp.UserID, &mp.Start, &mp.End, &cycleType, &mp.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan period row: %w", err)
		}
		mp.CycleType = core.CycleType(cycleType)
		out = append(out, mp)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeletePeriods(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM periods WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete periods for user %d: %w", userID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListAllSettings(ctx context.Context) ([]store.UserSettings, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, pay_cycle_type, pay_day, cycle_start_offset, created_at, updated_at
		FROM user_settings ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list all settings: %w", err)
	}
	defer rows.Close()

	var out []store.UserSettings
	for rows.Next() {
		var row settingsRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.CycleType, &row.PayDay, &row.Offset, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan settings row: %w", err)
		}
		out = append(out, row.toStore())
	}
	return out, rows.Err()
}

// isUniqueViolation sniffs the sqlite error text for constraint failures.
// The modernc driver exposes no typed constraint error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
