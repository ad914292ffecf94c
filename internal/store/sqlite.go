package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"washbot/internal/source"
	"washbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the SQLite-backed store, applying migrations on the way.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	// Cascade deletes from users/machines into subs rely on FK enforcement.
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// wrap translates driver-level failures into the boundary error so callers
// never need to know what storage engine sits behind the interface.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// ---- Users ----

func (s *sqliteStore) UpsertUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, username, lang) VALUES(?,?,?)
		 ON CONFLICT(id) DO UPDATE SET username=excluded.username`,
		u.ID, nullStr(u.Username), u.Lang,
	)
	if err == nil {
		s.log.Debug("user upserted", logx.Int64("user_id", u.ID))
	}
	return wrap(err)
}

func (s *sqliteStore) UserLang(ctx context.Context, userID int64) (string, error) {
	var lang string
	err := s.db.QueryRowContext(ctx, `SELECT lang FROM users WHERE id = ?`, userID).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", wrap(err)
	}
	return lang, nil
}

func (s *sqliteStore) SetUserLang(ctx context.Context, userID int64, lang string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET lang = ? WHERE id = ?`, lang, userID)
	if err == nil {
		s.log.Debug("user language changed", logx.Int64("user_id", userID), logx.String("lang", lang))
	}
	return wrap(err)
}

func (s *sqliteStore) RemoveUser(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return wrap(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Info("user removed", logx.Int64("user_id", userID))
	}
	return nil
}

// ---- Catalog ----

func (s *sqliteStore) UpsertCatalog(ctx context.Context, machines []source.Machine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer tx.Rollback()

	for _, m := range machines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO machines(id, kind, price) VALUES(?,?,?)
			 ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, price=excluded.price`,
			m.ID, m.Kind, m.Price,
		); err != nil {
			return wrap(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrap(err)
	}
	s.log.Debug("catalog upserted", logx.Int("machines", len(machines)))
	return nil
}

func (s *sqliteStore) Catalog(ctx context.Context) ([]source.Machine, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, price FROM machines ORDER BY id`)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []source.Machine
	for rows.Next() {
		var m source.Machine
		if err := rows.Scan(&m.ID, &m.Kind, &m.Price); err != nil {
			return nil, wrap(err)
		}
		out = append(out, m)
	}
	return out, wrap(rows.Err())
}

// ---- Subscriptions ----

func (s *sqliteStore) Subscribers(ctx context.Context, machineID int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM subs WHERE machine_id = ? ORDER BY user_id`, machineID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap(err)
		}
		out = append(out, id)
	}
	return out, wrap(rows.Err())
}

func (s *sqliteStore) Subscriptions(ctx context.Context, userID int64) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT machine_id FROM subs WHERE user_id = ? ORDER BY machine_id`, userID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, wrap(err)
		}
		out = append(out, id)
	}
	return out, wrap(rows.Err())
}

func (s *sqliteStore) AddSubscription(ctx context.Context, userID int64, machineID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subs(user_id, machine_id) VALUES(?,?)
		 ON CONFLICT(user_id, machine_id) DO NOTHING`,
		userID, machineID,
	)
	return wrap(err)
}

func (s *sqliteStore) RemoveSubscription(ctx context.Context, userID int64, machineID int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM subs WHERE user_id = ? AND machine_id = ?`, userID, machineID)
	return wrap(err)
}

func (s *sqliteStore) SetSubscriptions(ctx context.Context, userID int64, machineIDs []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subs WHERE user_id = ?`, userID); err != nil {
		return wrap(err)
	}
	for _, mid := range machineIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subs(user_id, machine_id) VALUES(?,?)`, userID, mid); err != nil {
			return wrap(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrap(err)
	}
	s.log.Debug("subscriptions set", logx.Int64("user_id", userID), logx.Ints("machines", machineIDs))
	return nil
}

func (s *sqliteStore) ClearSubscriptions(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subs WHERE user_id = ?`, userID)
	if err == nil {
		s.log.Debug("subscriptions cleared", logx.Int64("user_id", userID))
	}
	return wrap(err)
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
