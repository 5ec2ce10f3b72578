package geocache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	signature   TEXT PRIMARY KEY,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	resolved_at TEXT NOT NULL,
	source      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sitemap_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	updated_at TEXT NOT NULL
);
`

// SQLiteStore implements Store on a single-file database using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn, configures WAL
// mode and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, signature string) (domain.GeoResolution, bool, error) {
	var (
		res        domain.GeoResolution
		resolvedAt string
		source     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lon, resolved_at, source FROM geocode_cache WHERE signature = ?`, signature,
	).Scan(&res.Coordinates.Lat, &res.Coordinates.Lon, &resolvedAt, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GeoResolution{}, false, nil
	}
	if err != nil {
		return domain.GeoResolution{}, false, eris.Wrap(err, "sqlite: get resolution")
	}

	res.Signature = signature
	res.Source = domain.ResolutionSource(source)
	if res.ResolvedAt, err = time.Parse(time.RFC3339Nano, resolvedAt); err != nil {
		return domain.GeoResolution{}, false, eris.Wrapf(err, "sqlite: parse resolved_at %q", resolvedAt)
	}
	return res, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, res domain.GeoResolution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (signature, lat, lon, resolved_at, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (signature) DO UPDATE SET
			lat = excluded.lat,
			lon = excluded.lon,
			resolved_at = excluded.resolved_at,
			source = excluded.source`,
		res.Signature, res.Coordinates.Lat, res.Coordinates.Lon,
		res.ResolvedAt.UTC().Format(time.RFC3339Nano), string(res.Source),
	)
	return eris.Wrap(err, "sqlite: put resolution")
}

func (s *SQLiteStore) LastModified(ctx context.Context) (time.Time, bool, error) {
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM sitemap_state WHERE id = 1`).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, eris.Wrap(err, "sqlite: get last modified")
	}
	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return time.Time{}, false, eris.Wrapf(err, "sqlite: parse updated_at %q", updatedAt)
	}
	return t, true, nil
}

func (s *SQLiteStore) SetLastModified(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sitemap_state (id, updated_at) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at`,
		t.UTC().Format(time.RFC3339Nano),
	)
	return eris.Wrap(err, "sqlite: set last modified")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
