package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"000002_users.up.sql":      {Data: []byte("CREATE TABLE users (id BIGSERIAL)")},
		"000001_accounts.up.sql":   {Data: []byte("CREATE TABLE accounts (id BIGSERIAL)")},
		"000001_accounts.down.sql": {Data: []byte("DROP TABLE accounts")},
		"README.md":                {Data: []byte("ignored")},
	}
}

func TestPendingFiles_SortedUpOnly(t *testing.T) {
	names, err := pendingFiles(testMigrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_accounts.up.sql", "000002_users.up.sql"}, names)
}

func TestRunMigrations_AppliesNewSkipsApplied(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("000001_accounts.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("000002_users.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE users").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("000002_users.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = RunMigrations(context.Background(), mock, testMigrations(), discardLogger())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	fsys := fstest.MapFS{"000001_bad.up.sql": {Data: []byte("CREATE TABL oops")}}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("000001_bad.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABL oops").WillReturnError(errors.New("syntax error at or near \"TABL\""))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, fsys, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 000001_bad.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
