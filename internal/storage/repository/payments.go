package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

const paymentColumns = `p.id, p.user_id, p.receipt_status, p.receipt_url, p.receipt_uploaded_at,
		p.receipt_rejection_reason, p.verified_at, p.verified_by, p.created_at, p.updated_at`

func scanPayment(row rowScanner, p *models.Payment, extra ...any) error {
	dest := []any{&p.ID, &p.UserID, &p.Status, &p.ReceiptURL, &p.ReceiptUploadedAt,
		&p.RejectionReason, &p.VerifiedAt, &p.VerifiedBy, &p.CreatedAt, &p.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func scanPaymentView(row rowScanner) (models.PaymentView, error) {
	var v models.PaymentView
	err := scanPayment(row, &v.Payment, &v.Owner.FullName, &v.Owner.Email)
	return v, err
}

// GetPaymentByUser возвращает заявку об оплате пользователя.
func (s *Storage) GetPaymentByUser(ctx context.Context, userID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p := &models.Payment{}
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.user_id = $1`, userID)
	if err := scanPayment(row, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// UpdatePaymentUpload записывает ссылку на квитанцию и состояние после загрузки.
// Строка создаётся при регистрации; если её нет, она вставляется.
// Причина прошлого отклонения не очищается и перезапишется при следующей проверке.
func (s *Storage) UpdatePaymentUpload(ctx context.Context, rec models.UploadRecord) (*models.Payment, error) {
	const op = "storage.UpdatePaymentUpload"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p := &models.Payment{}
	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO payments AS p (user_id, receipt_url, receipt_status, receipt_uploaded_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET receipt_url = EXCLUDED.receipt_url,
		     receipt_status = EXCLUDED.receipt_status,
		     receipt_uploaded_at = EXCLUDED.receipt_uploaded_at,
		     updated_at = NOW()
		 RETURNING `+paymentColumns,
		rec.UserID, rec.URL, rec.Status, rec.UploadedAt)
	if err := scanPayment(row, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// ListPayments возвращает все заявки об оплате с данными владельца, новые первыми.
func (s *Storage) ListPayments(ctx context.Context) ([]models.PaymentView, error) {
	const op = "storage.ListPayments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+`, pr.full_name, pr.email
		 FROM payments p
		 JOIN profiles pr ON pr.id = p.user_id
		 ORDER BY p.created_at DESC, p.id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PaymentView
	for rows.Next() {
		v, err := scanPaymentView(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPayment возвращает заявку об оплате по идентификатору.
func (s *Storage) GetPayment(ctx context.Context, id string) (*models.PaymentView, error) {
	const op = "storage.GetPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+paymentColumns+`, pr.full_name, pr.email
		 FROM payments p
		 JOIN profiles pr ON pr.id = p.user_id
		 WHERE p.id = $1`, id)
	v, err := scanPaymentView(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &v, nil
}

// ReviewPayment записывает решение проверяющего. Для подтверждения Notes
// равен nil и прежняя причина отклонения сохраняется.
// При RequirePending строка обновляется только из статуса pending,
// иначе возвращается workflow.ErrInvalidTransition.
func (s *Storage) ReviewPayment(ctx context.Context, r models.Review) (*models.PaymentView, error) {
	const op = "storage.ReviewPayment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`WITH p AS (
		     UPDATE payments
		     SET receipt_status = $2,
		         receipt_rejection_reason = COALESCE($3, receipt_rejection_reason),
		         verified_at = $4,
		         verified_by = $5,
		         updated_at = NOW()
		     WHERE id = $1 AND (NOT $6 OR receipt_status = $7)
		     RETURNING *
		 )
		 SELECT `+paymentColumns+`, pr.full_name, pr.email
		 FROM p JOIN profiles pr ON pr.id = p.user_id`,
		r.SubmissionID, r.Status, nullString(r.Notes), r.ReviewedAt, r.ReviewerID,
		r.RequirePending, workflow.StatusPending)
	v, err := scanPaymentView(row)
	if err == nil {
		return &v, nil
	}
	err = mapError(err)
	if errors.Is(err, workflow.ErrNotFound) && r.RequirePending {
		current, getErr := s.GetPayment(ctx, r.SubmissionID)
		if getErr != nil {
			return nil, fmt.Errorf("%s: %w", op, getErr)
		}
		return nil, fmt.Errorf("%s: %w: %s -> %s", op, workflow.ErrInvalidTransition, current.Status, r.Status)
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}
