package database

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"franchise-onboarding/internal/common/config"
)

func esFake(t *testing.T, indexExists bool, created *string) *ElasticsearchClient {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		switch r.Method {
		case http.MethodHead:
			if indexExists {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			*created = r.URL.Path + " " + string(body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"acknowledged":true}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(server.Close)

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return es
}

func TestEnsureIndex_CreatesMissing(t *testing.T) {
	var created string
	es := esFake(t, false, &created)

	ok, err := es.EnsureIndex(context.Background(), "legacy_units", `{"mappings":{}}`)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `/legacy_units {"mappings":{}}`, created)
}

func TestEnsureIndex_KeepsExisting(t *testing.T) {
	var created string
	es := esFake(t, true, &created)

	ok, err := es.EnsureIndex(context.Background(), "legacy_units", `{}`)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, created)
}

func TestNewElasticsearch_RequiresAddresses(t *testing.T) {
	_, err := NewElasticsearch(config.ElasticsearchConfig{})
	assert.Error(t, err)
}

func TestRedis_PingAndClose(t *testing.T) {
	mr := miniredis.RunT(t)

	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, rc.Ping(context.Background()))
	require.NoError(t, rc.Close())

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestRunInTx_Commits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE onboarding_requests`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewTxRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		_, ok := TxFrom(ctx)
		assert.True(t, ok)
		_, err := Conn(ctx, db).ExecContext(ctx, `UPDATE onboarding_requests SET status = 'approved'`)
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("insert unit failed")
	err = NewTxRunner(db).RunInTx(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_NestedReusesOuter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	runner := NewTxRunner(db)
	err = runner.RunInTx(context.Background(), func(ctx context.Context) error {
		outer, _ := TxFrom(ctx)
		return runner.RunInTx(ctx, func(inner context.Context) error {
			tx, _ := TxFrom(inner)
			assert.Same(t, outer, tx)
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_AreGooseAnnotated(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(body), "-- +goose Up"), name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}
