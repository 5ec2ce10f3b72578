package geocache

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

func TestPostgresStore_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	location, err := encodePoint(acmeCoords)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WithArgs("sig", location, pgxmock.AnyArg(), "live-lookup").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresStore(mock)
	err = s.Put(context.Background(), domain.GeoResolution{
		Signature:   "sig",
		Coordinates: acmeCoords,
		ResolvedAt:  testNow,
		Source:      domain.SourceLiveLookup,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetHit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	location, err := encodePoint(acmeCoords)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT location, resolved_at, source FROM geocode_cache`).
		WithArgs("sig").
		WillReturnRows(
			pgxmock.NewRows([]string{"location", "resolved_at", "source"}).
				AddRow(location, testNow, "live-lookup"),
		)

	s := NewPostgresStore(mock)
	res, ok, err := s.Get(context.Background(), "sig")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 39.78, res.Coordinates.Lat, 1e-9)
	assert.InDelta(t, -89.65, res.Coordinates.Lon, 1e-9)
	assert.Equal(t, testNow, res.ResolvedAt)
	assert.Equal(t, domain.SourceLiveLookup, res.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT location, resolved_at, source FROM geocode_cache`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgresStore(mock)
	_, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_GetError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT location, resolved_at, source FROM geocode_cache`).
		WithArgs("sig").
		WillReturnError(assert.AnError)

	s := NewPostgresStore(mock)
	_, ok, err := s.Get(context.Background(), "sig")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_LastModified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT updated_at FROM sitemap_state`).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO sitemap_state`).
		WithArgs(testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT updated_at FROM sitemap_state`).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(testNow))

	s := NewPostgresStore(mock)
	ctx := context.Background()

	_, ok, err := s.LastModified(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetLastModified(ctx, testNow))

	got, ok, err := s.LastModified(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testNow, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geocode_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgresStore(mock).Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPointEncoding_RoundTrip(t *testing.T) {
	data, err := encodePoint(acmeCoords)
	require.NoError(t, err)

	got, err := decodePoint(data)
	require.NoError(t, err)
	assert.Equal(t, acmeCoords, got)

	_, err = decodePoint([]byte{0x01})
	assert.Error(t, err)
}
