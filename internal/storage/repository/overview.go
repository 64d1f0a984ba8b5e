package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// OverviewStats считает пользователей и заявки, в том числе ожидающие проверки.
func (s *Storage) OverviewStats(ctx context.Context) (models.OverviewStats, error) {
	const op = "storage.OverviewStats"
	var st models.OverviewStats
	if err := checkCtx(ctx, op); err != nil {
		return st, err
	}

	err := s.DB.QueryRowContext(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM profiles),
		     (SELECT COUNT(*) FROM payments),
		     (SELECT COUNT(*) FROM abstracts),
		     (SELECT COUNT(*) FROM payments WHERE receipt_status = $1),
		     (SELECT COUNT(*) FROM abstracts WHERE abstract_status = $1)`,
		workflow.StatusPending).
		Scan(&st.TotalUsers, &st.TotalPayments, &st.TotalAbstracts, &st.PendingPayments, &st.PendingAbstracts)
	if err != nil {
		return st, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
