package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

// ReportRepo persists and loads final reports. The full report is stored as
// JSONB next to a few columns used for listing and analytics.
type ReportRepo struct{ Pool PgxPool }

var _ domain.ReportRepository = (*ReportRepo)(nil)

// NewReportRepo constructs a ReportRepo with the given pool.
func NewReportRepo(p PgxPool) *ReportRepo { return &ReportRepo{Pool: p} }

// Save upserts a report by id.
func (r *ReportRepo) Save(ctx context.Context, rep domain.FinalReport) error {
	tracer := otel.Tracer("repo.reports")
	ctx, span := tracer.Start(ctx, "reports.Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("report.id", rep.ID),
	)
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("op=report.save: %w", err)
	}
	q := `INSERT INTO interview_reports (id, language, role_category, overall_score, recommendation, report, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (id)
	DO UPDATE SET language=EXCLUDED.language, role_category=EXCLUDED.role_category, overall_score=EXCLUDED.overall_score, recommendation=EXCLUDED.recommendation, report=EXCLUDED.report`
	if _, err := r.Pool.Exec(ctx, q, rep.ID, string(rep.Language), string(rep.RoleCategory), rep.OverallScore, string(rep.Recommendation), body, rep.CreatedAt); err != nil {
		return fmt.Errorf("op=report.save: %w", err)
	}
	return nil
}

// Get loads a report by id. Missing rows map to domain.ErrNotFound.
func (r *ReportRepo) Get(ctx context.Context, id string) (domain.FinalReport, error) {
	tracer := otel.Tracer("repo.reports")
	ctx, span := tracer.Start(ctx, "reports.Get")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", id))

	var body []byte
	if err := r.Pool.QueryRow(ctx, `SELECT report FROM interview_reports WHERE id=$1`, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FinalReport{}, fmt.Errorf("op=report.get: %w", domain.ErrNotFound)
		}
		return domain.FinalReport{}, fmt.Errorf("op=report.get: %w", err)
	}
	var rep domain.FinalReport
	if err := json.Unmarshal(body, &rep); err != nil {
		return domain.FinalReport{}, fmt.Errorf("op=report.get: %w: %v", domain.ErrInternal, err)
	}
	return rep, nil
}
