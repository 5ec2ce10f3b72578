package geocache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	signature   TEXT PRIMARY KEY,
	location    BYTEA NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL,
	source      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sitemap_state (
	id         SMALLINT PRIMARY KEY CHECK (id = 1),
	updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore implements Store on Postgres. Locations are stored as EWKB
// points (SRID 4326) so the column can be cast to a PostGIS geometry.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore wraps an existing pool. The schema is not touched; call Migrate.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Get(ctx context.Context, signature string) (domain.GeoResolution, bool, error) {
	var (
		location   []byte
		resolvedAt time.Time
		source     string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT location, resolved_at, source FROM geocode_cache WHERE signature = $1`, signature,
	).Scan(&location, &resolvedAt, &source)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GeoResolution{}, false, nil
	}
	if err != nil {
		return domain.GeoResolution{}, false, eris.Wrap(err, "postgres: get resolution")
	}

	coords, err := decodePoint(location)
	if err != nil {
		return domain.GeoResolution{}, false, eris.Wrapf(err, "postgres: decode location for %q", signature)
	}
	return domain.GeoResolution{
		Signature:   signature,
		Coordinates: coords,
		ResolvedAt:  resolvedAt,
		Source:      domain.ResolutionSource(source),
	}, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, res domain.GeoResolution) error {
	location, err := encodePoint(res.Coordinates)
	if err != nil {
		return eris.Wrap(err, "postgres: encode location")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO geocode_cache (signature, location, resolved_at, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (signature) DO UPDATE SET
			location = EXCLUDED.location,
			resolved_at = EXCLUDED.resolved_at,
			source = EXCLUDED.source`,
		res.Signature, location, res.ResolvedAt, string(res.Source),
	)
	return eris.Wrap(err, "postgres: put resolution")
}

func (s *PostgresStore) LastModified(ctx context.Context) (time.Time, bool, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx, `SELECT updated_at FROM sitemap_state WHERE id = 1`).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, eris.Wrap(err, "postgres: get last modified")
	}
	return t, true, nil
}

func (s *PostgresStore) SetLastModified(ctx context.Context, t time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sitemap_state (id, updated_at) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at`, t)
	return eris.Wrap(err, "postgres: set last modified")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// encodePoint marshals c as a little-endian EWKB point, x = longitude.
func encodePoint(c domain.Coordinates) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326)
	return ewkb.Marshal(p, ewkb.NDR)
}

func decodePoint(data []byte) (domain.Coordinates, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return domain.Coordinates{}, err
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return domain.Coordinates{}, eris.Errorf("expected point, got %T", g)
	}
	return domain.Coordinates{Lat: p.Y(), Lon: p.X()}, nil
}
