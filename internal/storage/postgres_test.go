package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB records the statements and transaction outcomes the sink produces,
// and can force a failure on statements matching a substring.
type fakeDB struct {
	queries   []string
	execs     int
	failOn    string
	commits   int
	rollbacks int
}

type fakeConnector struct{ db *fakeDB }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return &fakeConn{db: c.db}, nil }
func (c fakeConnector) Driver() driver.Driver                        { return fakeSQLDriver{} }

type fakeSQLDriver struct{}

func (fakeSQLDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

type fakeConn struct{ db *fakeDB }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	c.db.queries = append(c.db.queries, query)
	return &fakeStmt{db: c.db, query: query}, nil
}
func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) {
	return fakeTx{db: c.db}, nil
}

type fakeTx struct{ db *fakeDB }

func (t fakeTx) Commit() error   { t.db.commits++; return nil }
func (t fakeTx) Rollback() error { t.db.rollbacks++; return nil }

type fakeStmt struct {
	db    *fakeDB
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	if s.db.failOn != "" && strings.Contains(s.query, s.db.failOn) {
		return nil, errors.New("forced statement failure")
	}
	s.db.execs++
	return driver.RowsAffected(1), nil
}
func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("queries not supported")
}

func newFakePostgres(db *fakeDB) *PostgresStorage {
	return &PostgresStorage{db: sql.OpenDB(fakeConnector{db: db})}
}

func TestPostgresSaveMergesAndCopies(t *testing.T) {
	db := &fakeDB{}
	store := newFakePostgres(db)
	date := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	prices, metadata := testRun(date)

	require.NoError(t, store.Save(prices, metadata))

	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[0], "INSERT INTO product_metadata")
	assert.Contains(t, db.queries[0], "ON CONFLICT (product_id) DO UPDATE")
	assert.Contains(t, db.queries[1], `COPY "product_price"`)

	// One metadata upsert, one price row, one COPY flush.
	assert.Equal(t, 3, db.execs)
	assert.Equal(t, 1, db.commits)
	assert.Equal(t, 0, db.rollbacks)
}

func TestPostgresSaveRollsBackOnMetadataFailure(t *testing.T) {
	db := &fakeDB{failOn: "product_metadata"}
	store := newFakePostgres(db)
	date := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	prices, metadata := testRun(date)

	err := store.Save(prices, metadata)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot commit product metadata")
	assert.Equal(t, 1, db.rollbacks)
	assert.Equal(t, 0, db.commits)
}

func TestPostgresSaveRollsBackOnPriceFailure(t *testing.T) {
	db := &fakeDB{failOn: "product_price"}
	store := newFakePostgres(db)
	date := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	prices, metadata := testRun(date)

	err := store.Save(prices, metadata)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot commit product prices")
	assert.Equal(t, 1, db.rollbacks)
	assert.Equal(t, 0, db.commits)
}
