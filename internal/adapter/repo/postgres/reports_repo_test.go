package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

func sampleReport() domain.FinalReport {
	return domain.FinalReport{
		ID:             "6f1c9a52-3a8e-4d8f-9a55-2d4c1b0b7e11",
		Language:       domain.LangEN,
		InterviewType:  "technical",
		RoleCategory:   domain.RoleBackend,
		OverallScore:   72,
		Recommendation: domain.RecommendHire,
		Breakdown:      domain.Breakdown{Technical: 75, Communication: 70, ProblemSolving: 71},
		RoundScores:    []int{70, 72, 74},
		Strengths:      []string{"clear"},
		Improvements:   []string{},
		QuestionCount:  12,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestReportRepo_SaveAndGet(t *testing.T) {
	pool := &poolStub{}
	repo := postgres.NewReportRepo(pool)
	ctx := context.Background()
	rep := sampleReport()

	require.NoError(t, repo.Save(ctx, rep))
	got, err := repo.Get(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep, got)
	assert.Contains(t, pool.sql[0], "ON CONFLICT (id)")
}

func TestReportRepo_Save_Upserts(t *testing.T) {
	pool := &poolStub{}
	repo := postgres.NewReportRepo(pool)
	ctx := context.Background()
	rep := sampleReport()
	require.NoError(t, repo.Save(ctx, rep))
	rep.OverallScore = 90
	require.NoError(t, repo.Save(ctx, rep))
	got, err := repo.Get(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.OverallScore)
}

func TestReportRepo_Get_NotFound(t *testing.T) {
	repo := postgres.NewReportRepo(&poolStub{})
	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportRepo_Get_CorruptRow(t *testing.T) {
	pool := &poolStub{rows: map[string][]byte{"x": []byte("{not json")}}
	_, err := postgres.NewReportRepo(pool).Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestReportRepo_Errors(t *testing.T) {
	ctx := context.Background()
	err := postgres.NewReportRepo(&poolStub{execErr: assert.AnError}).Save(ctx, sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=report.save")

	_, err = postgres.NewReportRepo(&poolStub{rowErr: errors.New("conn reset")}).Get(ctx, "id")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "op=report.get")
}

func TestEnsureSchema(t *testing.T) {
	pool := &poolStub{}
	require.NoError(t, postgres.EnsureSchema(context.Background(), pool))
	assert.Contains(t, pool.sql[0], "CREATE TABLE IF NOT EXISTS interview_reports")

	assert.Error(t, postgres.EnsureSchema(context.Background(), &poolStub{execErr: assert.AnError}))
}
