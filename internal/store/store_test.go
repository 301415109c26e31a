package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvmatch/internal/errors"
	"cvmatch/internal/types"
)

type fakeRow struct {
	skills []string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]string)) = r.skills
	return nil
}

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	rows  map[string]fakeRow
	execs []execCall
	err   error
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	row, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return row
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestSkillsLookup(t *testing.T) {
	db := &fakeDB{rows: map[string]fakeRow{
		"cv-1":  {skills: []string{"React", "Node.js"}},
		"job-1": {skills: []string{"react", "python"}},
		"cv-2":  {skills: nil},
		"bad":   {err: stderrors.New("connection reset")},
	}}
	s := &PostgresStore{db: db}
	ctx := context.Background()

	cv, err := s.CVSkills(ctx, "cv-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"React", "Node.js"}, cv)

	job, err := s.JobSkills(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "python"}, job)

	empty, err := s.CVSkills(ctx, "cv-2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = s.JobSkills(ctx, "missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = s.CVSkills(ctx, "bad")
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestResolveSkills(t *testing.T) {
	s := &PostgresStore{db: &fakeDB{rows: map[string]fakeRow{
		"cv-1":  {skills: []string{"Go"}},
		"job-1": {skills: []string{"Go", "Rust"}},
	}}}

	cv, job, err := ResolveSkills(context.Background(), s, "cv-1", "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, cv)
	assert.Equal(t, []string{"Go", "Rust"}, job)

	_, _, err = ResolveSkills(context.Background(), s, "cv-1", "nope")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestRecordAuditEvent(t *testing.T) {
	db := &fakeDB{}
	s := &PostgresStore{db: db}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	analysis := &types.CompatibilityAnalysis{CompatibilityScore: 70, ATSScore: 45, KeywordGaps: []string{"Docker"}}
	event := AnalysisEvent(analysis, at)
	require.NoError(t, s.Record(context.Background(), event))

	require.Len(t, db.execs, 1)
	call := db.execs[0]
	assert.Contains(t, call.sql, "INSERT INTO audit_logs")
	assert.Equal(t, event.ID, call.args[0])
	assert.Equal(t, ActionCVAnalyzed, call.args[1])
	assert.Equal(t, at, call.args[3])

	var details map[string]any
	require.NoError(t, json.Unmarshal(call.args[2].([]byte), &details))
	assert.Equal(t, float64(45), details["atsScore"])
	assert.Equal(t, false, details["degraded"])
}

func TestRecordFillsDefaults(t *testing.T) {
	db := &fakeDB{}
	s := &PostgresStore{db: db}

	require.NoError(t, s.Record(context.Background(), Event{Action: ActionCVOptimized}))
	assert.NotEqual(t, uuid.Nil, db.execs[0].args[0])
	assert.False(t, db.execs[0].args[3].(time.Time).IsZero())

	db.err = stderrors.New("disk full")
	assert.Error(t, s.Record(context.Background(), Event{Action: ActionCVOptimized}))
}

func TestOptimizationEvent(t *testing.T) {
	result := &types.OptimizationResult{OptimizedCV: "cv", ATSScore: 70}
	event := OptimizationEvent(result, 45, time.Now())

	assert.Equal(t, ActionCVOptimized, event.Action)
	assert.Equal(t, 25, event.Details["improvement"])
	assert.Equal(t, 45, event.Details["originalAtsScore"])
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	s := &PostgresStore{db: db}
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS audit_logs")
}
