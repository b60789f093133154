package sql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatsExecutor(t *testing.T) {
	drv, mock := mockDriver(t)
	core, logs := observer.New(zapcore.DebugLevel)
	ex := NewStatsExecutor(drv, WithLogger(zap.New(core)), WithSlowThreshold(time.Hour))
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, title FROM manga WHERE id = $1").WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	var m manga
	require.True(t, IsNoRows(ex.Get(ctx, &m, "SELECT id, title FROM manga WHERE id = $1", "m1")))

	mock.ExpectQuery("SELECT id, name FROM tag").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "action"))
	var tags []tag
	require.NoError(t, ex.Select(ctx, &tags, "SELECT id, name FROM tag"))

	mock.ExpectExec("DELETE FROM tag").WillReturnError(errors.New("boom"))
	_, err := ex.Exec(ctx, "DELETE FROM tag")
	require.Error(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(rootQuery).WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("m1", "Berserk"))
	mock.ExpectQuery(parentQuery).WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectCommit()
	stmts := []Statement{NewStatement(rootQuery, "m1"), NewStatement(parentQuery, "m1")}
	require.NoError(t, ex.Batch(ctx, stmts, func(r BatchReader) error {
		if err := r.One(&m); err != nil {
			return err
		}
		var sources []source
		return r.Many(&sources)
	}))
	require.NoError(t, mock.ExpectationsWereMet())

	s := ex.QueryStats().Stats()
	assert.Equal(t, int64(4), s.TotalQueries)
	assert.Equal(t, int64(1), s.TotalExecs)
	assert.Equal(t, int64(1), s.TotalBatches)
	assert.Equal(t, int64(1), s.Errors, "a missing row is not a failure")
	assert.Zero(t, s.SlowQueries)
	assert.Contains(t, s.String(), "queries=4 execs=1 batches=1")

	failed := logs.FilterMessage("statement failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "DELETE FROM tag", failed[0].ContextMap()["query"])

	ex.QueryStats().Reset()
	assert.Zero(t, ex.QueryStats().Stats().TotalQueries)
	assert.Zero(t, ex.QueryStats().Stats().AvgQueryDuration())
}

func TestStatsExecutor_Slow(t *testing.T) {
	drv, mock := mockDriver(t)
	core, logs := observer.New(zapcore.WarnLevel)
	ex := NewStatsExecutor(drv, WithLogger(zap.New(core)))
	assert.Equal(t, 100*time.Millisecond, ex.SlowThreshold())
	ex.SetSlowThreshold(-1)

	mock.ExpectExec("UPDATE manga SET title = $1").WithArgs("x").WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := ex.Exec(context.Background(), "UPDATE manga SET title = $1", "x")
	require.NoError(t, err)

	assert.Equal(t, int64(1), ex.QueryStats().Stats().SlowQueries)
	slow := logs.FilterMessage("slow statement detected").All()
	require.Len(t, slow, 1)
	assert.Equal(t, "UPDATE manga SET title = $1", slow[0].ContextMap()["query"])
}
