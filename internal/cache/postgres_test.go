package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &Postgres{pool: mock, ttl: time.Hour}, mock
}

func TestPostgres_Get_Hit(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT value FROM geocode_cache WHERE cache_key = \$1 AND expires_at > now\(\)`).
		WithArgs("search:abc").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[{"city":"Paris"}]`)))

	got, ok, err := p.Get(context.Background(), "search:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"city":"Paris"}]`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Miss(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT value FROM geocode_cache`).
		WithArgs("search:none").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := p.Get(context.Background(), "search:none")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Error(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT value FROM geocode_cache`).
		WithArgs("k").
		WillReturnError(eris.New("connection reset"))

	_, _, err := p.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres get")
}

func TestPostgres_Set(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO geocode_cache .* ON CONFLICT \(cache_key\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "reverse:89c25", []byte(`{"city":"NYC"}`), int64(3600)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, p.Set(context.Background(), "reverse:89c25", []byte(`{"city":"NYC"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Set_Error(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WillReturnError(eris.New("disk full"))

	err := p.Set(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres set")
}

func TestPostgres_Migrate(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geocode_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, p.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM geocode_cache WHERE expires_at <= now\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := p.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired_Error(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM geocode_cache`).
		WillReturnError(eris.New("connection reset"))

	_, err := p.DeleteExpired(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres delete expired")
}

func TestPostgres_Sweeper(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM geocode_cache WHERE expires_at <= now\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	p.StartSweeper(time.Hour)
	assert.Eventually(t, func() bool { return mock.ExpectationsWereMet() == nil }, 2*time.Second, 10*time.Millisecond)
	p.janitor.stop()
}
