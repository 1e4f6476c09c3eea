package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// FileName is the SQLite database file created inside the data directory.
const FileName = "rtps.db"

var (
	// ErrPersistence wraps every storage failure so callers can detect it
	// with errors.Is regardless of the underlying driver error.
	ErrPersistence = errors.New("persistence failure")

	// ErrEmptyHost is returned when a list operation receives an empty host.
	ErrEmptyHost = errors.New("host must not be empty")
)

// List names stored in the hosts table.
const (
	listSafe   = "safe"
	listUnsafe = "unsafe"
)

// metaSeeded marks that the default safe hosts were written once.
const metaSeeded = "default_hosts_seeded"

// Store provides SQLite-based storage for host lists, the detected-phishing
// log and engine settings.
//
// Design decision: hosts live in a single table keyed by host with a list
// column. A host can therefore never be on both lists, and moving it between
// lists is a single upsert.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'rtps init' or 'rtps serve' first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create the file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Allow/deny lists. A host belongs to at most one list.
	CREATE TABLE IF NOT EXISTS hosts (
		host TEXT PRIMARY KEY,
		list TEXT NOT NULL CHECK (list IN ('safe', 'unsafe')),
		added_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hosts_list ON hosts(list);

	-- Detected-phishing log, unique by exact URL
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		host TEXT NOT NULL,
		referrer TEXT,
		redirect_chain TEXT,
		reason TEXT,
		type TEXT NOT NULL,
		detected_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detections_host ON detections(host);

	-- Engine settings stored as one JSON document
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// EnsureSeeded writes hosts to the safe list the first time it is called on
// a database. It reports whether seeding happened.
func (s *Store) EnsureSeeded(ctx context.Context, hosts []string) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSeeded).Scan(&value)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, persistErr("read seed marker", err)
	}

	if _, err := s.MergeSafeHosts(ctx, hosts); err != nil {
		return false, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)`,
		metaSeeded, formatTimestamp(time.Now())); err != nil {
		return false, persistErr("write seed marker", err)
	}
	return true, nil
}

// MergeSafeHosts adds hosts to the safe list, leaving hosts that are already
// on either list untouched. It returns how many hosts were added.
func (s *Store) MergeSafeHosts(ctx context.Context, hosts []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistErr("begin merge", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTimestamp(time.Now())
	added := 0
	for _, h := range hosts {
		h = hostname.Normalize(h)
		if h == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO hosts (host, list, added_at) VALUES (?, ?, ?) ON CONFLICT(host) DO NOTHING`,
			h, listSafe, now)
		if err != nil {
			return 0, persistErr("merge safe host", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, persistErr("commit merge", err)
	}
	return added, nil
}

// HostLists returns both lists. It implements classifier.ListSource.
func (s *Store) HostLists(ctx context.Context) (model.HostLists, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT host, list FROM hosts ORDER BY host`)
	if err != nil {
		return model.HostLists{}, persistErr("query hosts", err)
	}
	defer rows.Close()

	lists := model.HostLists{
		SafeHosts:   []string{},
		UnsafeHosts: []string{},
	}
	for rows.Next() {
		var host, list string
		if err := rows.Scan(&host, &list); err != nil {
			return model.HostLists{}, persistErr("scan host", err)
		}
		if list == listUnsafe {
			lists.UnsafeHosts = append(lists.UnsafeHosts, host)
		} else {
			lists.SafeHosts = append(lists.SafeHosts, host)
		}
	}
	if err := rows.Err(); err != nil {
		return model.HostLists{}, persistErr("iterate hosts", err)
	}
	return lists, nil
}

// AddHost puts host on the safe or unsafe list, moving it off the other list.
// Marking a host safe also removes its entries from the detected-phishing log.
func (s *Store) AddHost(ctx context.Context, host string, safe bool) error {
	host = hostname.Normalize(host)
	if host == "" {
		return ErrEmptyHost
	}
	list := listUnsafe
	if safe {
		list = listSafe
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin add host", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO hosts (host, list, added_at) VALUES (?, ?, ?)
		ON CONFLICT(host) DO UPDATE SET list = excluded.list, added_at = excluded.added_at`,
		host, list, formatTimestamp(time.Now())); err != nil {
		return persistErr("add host", err)
	}
	if safe {
		if _, err := tx.ExecContext(ctx, `DELETE FROM detections WHERE host = ?`, host); err != nil {
			return persistErr("remove host detections", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit add host", err)
	}
	return nil
}

// RemoveHost drops host from both lists. Removing an absent host is not an error.
func (s *Store) RemoveHost(ctx context.Context, host string) error {
	host = hostname.Normalize(host)
	if host == "" {
		return ErrEmptyHost
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM hosts WHERE host = ?`, host); err != nil {
		return persistErr("remove host", err)
	}
	return nil
}

// AddDetection appends d to the detected-phishing log unless an entry with
// the same URL exists. It reports whether a row was inserted.
func (s *Store) AddDetection(ctx context.Context, d model.Detection) (bool, error) {
	chain, err := json.Marshal(d.RedirectChain)
	if err != nil {
		return false, fmt.Errorf("failed to serialize redirect chain: %w", err)
	}
	ts := d.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO detections (url, host, referrer, redirect_chain, reason, type, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		d.URL, d.Host, d.Referrer, string(chain), d.Reason, string(d.Type), formatTimestamp(ts))
	if err != nil {
		return false, persistErr("add detection", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistErr("add detection", err)
	}
	return n > 0, nil
}

// Detections returns the detected-phishing log, oldest first.
func (s *Store) Detections(ctx context.Context) ([]model.Detection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, host, COALESCE(referrer, ''), COALESCE(redirect_chain, ''),
		       COALESCE(reason, ''), type, detected_at
		FROM detections ORDER BY id`)
	if err != nil {
		return nil, persistErr("query detections", err)
	}
	defer rows.Close()

	detections := []model.Detection{}
	for rows.Next() {
		var (
			d         model.Detection
			chain     string
			typ       string
			timestamp string
		)
		if err := rows.Scan(&d.URL, &d.Host, &d.Referrer, &chain, &d.Reason, &typ, &timestamp); err != nil {
			return nil, persistErr("scan detection", err)
		}
		if chain != "" {
			if err := json.Unmarshal([]byte(chain), &d.RedirectChain); err != nil {
				return nil, fmt.Errorf("failed to parse redirect chain: %w", err)
			}
		}
		d.Type = model.DetectionType(typ)
		d.Timestamp = parseTimestamp(timestamp)
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate detections", err)
	}
	return detections, nil
}

// ClearDetections empties the detected-phishing log and returns how many
// entries were removed.
func (s *Store) ClearDetections(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM detections`)
	if err != nil {
		return 0, persistErr("clear detections", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistErr("clear detections", err)
	}
	return n, nil
}

// Settings returns the stored settings. Missing fields take their defaults.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE id = 1`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, persistErr("read settings", err)
	}
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return model.DefaultSettings(), fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings merges patch over the stored settings and returns the result.
func (s *Store) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return current, err
	}
	next := current.Apply(patch)
	if err := s.SaveSettings(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// SaveSettings replaces the stored settings.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, value) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value`, string(data)); err != nil {
		return persistErr("save settings", err)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
