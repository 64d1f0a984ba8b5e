package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

const abstractColumns = `a.id, a.user_id, a.title, a.authors, a.affiliation, a.subtheme, a.abstract_status,
		a.abstract_url, a.abstract_uploaded_at, a.reviewed_at, a.reviewed_by, a.reviewer_notes,
		a.created_at, a.updated_at`

func scanAbstract(row rowScanner, a *models.Abstract, extra ...any) error {
	dest := []any{&a.ID, &a.UserID, &a.Title, &a.Authors, &a.Affiliation, &a.Subtheme, &a.Status,
		&a.AbstractURL, &a.UploadedAt, &a.ReviewedAt, &a.ReviewedBy, &a.ReviewerNotes,
		&a.CreatedAt, &a.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func scanAbstractView(row rowScanner) (models.AbstractView, error) {
	var v models.AbstractView
	err := scanAbstract(row, &v.Abstract, &v.Owner.FullName, &v.Owner.Email)
	return v, err
}

// GetAbstractByUser возвращает тезисы пользователя или workflow.ErrNotFound.
func (s *Storage) GetAbstractByUser(ctx context.Context, userID string) (*models.Abstract, error) {
	const op = "storage.GetAbstractByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	a := &models.Abstract{}
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+abstractColumns+` FROM abstracts a WHERE a.user_id = $1`, userID)
	if err := scanAbstract(row, a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// UpsertAbstract создаёт или обновляет тезисы пользователя (по user_id)
// и переводит их в pending. Заметки прошлой проверки не очищаются.
func (s *Storage) UpsertAbstract(ctx context.Context, a models.Abstract) (*models.Abstract, error) {
	const op = "storage.UpsertAbstract"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	out := &models.Abstract{}
	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO abstracts AS a (user_id, title, authors, affiliation, subtheme,
		                             abstract_url, abstract_status, abstract_uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE
		 SET title = EXCLUDED.title,
		     authors = EXCLUDED.authors,
		     affiliation = EXCLUDED.affiliation,
		     subtheme = EXCLUDED.subtheme,
		     abstract_url = EXCLUDED.abstract_url,
		     abstract_status = EXCLUDED.abstract_status,
		     abstract_uploaded_at = EXCLUDED.abstract_uploaded_at,
		     updated_at = NOW()
		 RETURNING `+abstractColumns,
		a.UserID, a.Title, a.Authors, a.Affiliation, a.Subtheme,
		a.AbstractURL, a.Status, a.UploadedAt)
	if err := scanAbstract(row, out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

// ListAbstracts возвращает все тезисы с данными владельца, новые первыми.
func (s *Storage) ListAbstracts(ctx context.Context) ([]models.AbstractView, error) {
	const op = "storage.ListAbstracts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+abstractColumns+`, pr.full_name, pr.email
		 FROM abstracts a
		 JOIN profiles pr ON pr.id = a.user_id
		 ORDER BY a.created_at DESC, a.id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.AbstractView
	for rows.Next() {
		v, err := scanAbstractView(rows)
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

// GetAbstract возвращает тезисы по идентификатору.
func (s *Storage) GetAbstract(ctx context.Context, id string) (*models.AbstractView, error) {
	const op = "storage.GetAbstract"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+abstractColumns+`, pr.full_name, pr.email
		 FROM abstracts a
		 JOIN profiles pr ON pr.id = a.user_id
		 WHERE a.id = $1`, id)
	v, err := scanAbstractView(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &v, nil
}

// ReviewAbstract записывает решение проверяющего вместе с заметками (или NULL).
// При RequirePending строка обновляется только из статуса pending.
func (s *Storage) ReviewAbstract(ctx context.Context, r models.Review) (*models.AbstractView, error) {
	const op = "storage.ReviewAbstract"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx,
		`WITH a AS (
		     UPDATE abstracts
		     SET abstract_status = $2,
		         reviewer_notes = $3,
		         reviewed_at = $4,
		         reviewed_by = $5,
		         updated_at = NOW()
		     WHERE id = $1 AND (NOT $6 OR abstract_status = $7)
		     RETURNING *
		 )
		 SELECT `+abstractColumns+`, pr.full_name, pr.email
		 FROM a JOIN profiles pr ON pr.id = a.user_id`,
		r.SubmissionID, r.Status, nullString(r.Notes), r.ReviewedAt, r.ReviewerID,
		r.RequirePending, workflow.StatusPending)
	v, err := scanAbstractView(row)
	if err == nil {
		return &v, nil
	}
	err = mapError(err)
	if errors.Is(err, workflow.ErrNotFound) && r.RequirePending {
		current, getErr := s.GetAbstract(ctx, r.SubmissionID)
		if getErr != nil {
			return nil, fmt.Errorf("%s: %w", op, getErr)
		}
		return nil, fmt.Errorf("%s: %w: %s -> %s", op, workflow.ErrInvalidTransition, current.Status, r.Status)
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}
