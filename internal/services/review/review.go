// Package review реализует консоль проверки заявок администратором,
// выдачу роли admin и сводку для главной страницы консоли.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/conference-registration/internal/cache"
	"github.com/magabrotheeeer/conference-registration/internal/config"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/metrics"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// overviewTTL — время жизни закэшированной сводки.
const overviewTTL = time.Minute

// Repository — операции хранилища, нужные консоли проверки.
type Repository interface {
	ListPayments(ctx context.Context) ([]models.PaymentView, error)
	GetPayment(ctx context.Context, id string) (*models.PaymentView, error)
	ReviewPayment(ctx context.Context, r models.Review) (*models.PaymentView, error)
	ListAbstracts(ctx context.Context) ([]models.AbstractView, error)
	GetAbstract(ctx context.Context, id string) (*models.AbstractView, error)
	ReviewAbstract(ctx context.Context, r models.Review) (*models.AbstractView, error)
	ListUsers(ctx context.Context) ([]models.UserView, error)
	InsertRole(ctx context.Context, userID string, role models.Role) (bool, error)
	OverviewStats(ctx context.Context) (models.OverviewStats, error)
}

// Cache описывает методы для кэширования сводки.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher отправляет события о решениях проверяющего.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Service — консоль проверки.
type Service struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	strict    bool
	now       func() time.Time
}

// NewService создаёт сервис проверки. По умолчанию последнее решение
// перезаписывает предыдущее. В строгом режиме решение применяется только
// к заявке в состоянии pending.
func NewService(repo Repository, cache Cache, publisher Publisher, m *metrics.Metrics, cfg config.Review, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log,
		strict:    cfg.Strict,
		now:       time.Now,
	}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return workflow.ErrForbidden
	}
	return nil
}

// ListPayments возвращает заявки об оплате с бейджами. Поиск по имени,
// email и статусу владельца, без учёта регистра.
func (s *Service) ListPayments(ctx context.Context, actor models.Actor, query string) ([]models.PaymentView, error) {
	const op = "review.ListPayments"
	if err := requireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	all, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.PaymentView, 0, len(all))
	for _, v := range all {
		if !workflow.Matches(query, v.Owner.FullName, v.Owner.Email, string(v.Status)) {
			continue
		}
		v.Badge = workflow.BadgeFor(workflow.DomainPayment, v.Status)
		out = append(out, v)
	}
	return out, nil
}

// ListAbstracts возвращает тезисы с бейджами. Поиск по названию,
// авторам, имени владельца и статусу.
func (s *Service) ListAbstracts(ctx context.Context, actor models.Actor, query string) ([]models.AbstractView, error) {
	const op = "review.ListAbstracts"
	if err := requireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	all, err := s.repo.ListAbstracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.AbstractView, 0, len(all))
	for _, v := range all {
		if !workflow.Matches(query, v.Title, v.Authors, v.Owner.FullName, string(v.Status)) {
			continue
		}
		v.Badge = workflow.BadgeFor(workflow.DomainAbstract, v.Status)
		out = append(out, v)
	}
	return out, nil
}

// VerifyPayment подтверждает оплату. Прежняя причина отклонения сохраняется.
func (s *Service) VerifyPayment(ctx context.Context, actor models.Actor, id string) ([]models.PaymentView, error) {
	const op = "review.VerifyPayment"
	if err := s.reviewPayment(ctx, actor, id, workflow.StatusVerified, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.ListPayments(ctx, actor, "")
}

// RejectPayment отклоняет оплату с обязательной причиной.
func (s *Service) RejectPayment(ctx context.Context, actor models.Actor, id, reason string) ([]models.PaymentView, error) {
	const op = "review.RejectPayment"
	if err := workflow.ValidateReason(reason); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reason = strings.TrimSpace(reason)
	if err := s.reviewPayment(ctx, actor, id, workflow.StatusRejected, &reason); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.ListPayments(ctx, actor, "")
}

// ApproveAbstract одобряет тезисы. Пустые заметки записываются как NULL.
func (s *Service) ApproveAbstract(ctx context.Context, actor models.Actor, id, notes string) ([]models.AbstractView, error) {
	const op = "review.ApproveAbstract"
	var n *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		n = &trimmed
	}
	if err := s.reviewAbstract(ctx, actor, id, workflow.StatusApproved, n); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.ListAbstracts(ctx, actor, "")
}

// RejectAbstract отклоняет тезисы. Заметки обязательны.
func (s *Service) RejectAbstract(ctx context.Context, actor models.Actor, id, notes string) ([]models.AbstractView, error) {
	const op = "review.RejectAbstract"
	if err := workflow.ValidateReason(notes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	notes = strings.TrimSpace(notes)
	if err := s.reviewAbstract(ctx, actor, id, workflow.StatusRejected, &notes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.ListAbstracts(ctx, actor, "")
}

func (s *Service) reviewPayment(ctx context.Context, actor models.Actor, id string, to workflow.Status, notes *string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if s.strict {
		current, err := s.repo.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.CanReview(workflow.DomainPayment, current.Status, to); err != nil {
			return err
		}
	}
	v, err := s.repo.ReviewPayment(ctx, models.Review{
		SubmissionID:   id,
		Status:         to,
		Notes:          notes,
		ReviewerID:     actor.UserID,
		ReviewedAt:     s.now(),
		RequirePending: s.strict,
	})
	if err != nil {
		return err
	}

	decision := models.ReviewDecision{
		Domain:       workflow.DomainPayment,
		SubmissionID: v.ID,
		UserID:       v.UserID,
		Email:        v.Owner.Email,
		FullName:     v.Owner.FullName,
		Status:       v.Status,
		ReviewedAt:   s.now(),
	}
	if notes != nil {
		decision.Notes = *notes
	}
	s.afterTransition(ctx, decision)
	return nil
}

func (s *Service) reviewAbstract(ctx context.Context, actor models.Actor, id string, to workflow.Status, notes *string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if s.strict {
		current, err := s.repo.GetAbstract(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.CanReview(workflow.DomainAbstract, current.Status, to); err != nil {
			return err
		}
	}
	v, err := s.repo.ReviewAbstract(ctx, models.Review{
		SubmissionID:   id,
		Status:         to,
		Notes:          notes,
		ReviewerID:     actor.UserID,
		ReviewedAt:     s.now(),
		RequirePending: s.strict,
	})
	if err != nil {
		return err
	}

	decision := models.ReviewDecision{
		Domain:       workflow.DomainAbstract,
		SubmissionID: v.ID,
		UserID:       v.UserID,
		Email:        v.Owner.Email,
		FullName:     v.Owner.FullName,
		Status:       v.Status,
		Title:        v.Title,
		ReviewedAt:   s.now(),
	}
	if notes != nil {
		decision.Notes = *notes
	}
	s.afterTransition(ctx, decision)
	return nil
}

// afterTransition учитывает решение в метриках, сбрасывает сводку и
// публикует событие для уведомления участника. Ошибки только логируются:
// решение уже записано.
func (s *Service) afterTransition(ctx context.Context, d models.ReviewDecision) {
	s.metrics.Transitions.WithLabelValues(string(d.Domain), string(d.Status)).Inc()
	if err := s.cache.Invalidate(ctx, cache.KeyOverviewStats); err != nil {
		s.log.Warn("failed to invalidate overview cache", sl.Err(err))
	}
	if err := s.publisher.Publish(ctx, d); err != nil {
		s.log.Error("failed to publish review decision",
			slog.String("domain", string(d.Domain)),
			slog.String("submission_id", d.SubmissionID),
			sl.Err(err),
		)
		return
	}
	s.log.Info("review decision recorded",
		slog.String("domain", string(d.Domain)),
		slog.String("submission_id", d.SubmissionID),
		slog.String("status", string(d.Status)),
	)
}

// GrantAdmin выдаёт пользователю роль admin. Повторная выдача не ошибка:
// возвращается alreadyAdmin = true. Понижения роли нет.
func (s *Service) GrantAdmin(ctx context.Context, actor models.Actor, userID string) (bool, error) {
	const op = "review.GrantAdmin"
	if err := requireAdmin(actor); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := s.repo.InsertRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if inserted {
		s.log.Info("admin role granted", slog.String("user_id", userID), slog.String("granted_by", actor.UserID))
	}
	return !inserted, nil
}

// ListUsers возвращает пользователей с ролями. Поиск по имени и email.
func (s *Service) ListUsers(ctx context.Context, actor models.Actor, query string) ([]models.UserView, error) {
	const op = "review.ListUsers"
	if err := requireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.UserView, 0, len(all))
	for _, u := range all {
		if workflow.Matches(query, u.FullName, u.Email) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Overview возвращает сводку, кэшируя её на минуту. Недоступность кэша
// не мешает ответу.
func (s *Service) Overview(ctx context.Context, actor models.Actor) (models.OverviewStats, error) {
	const op = "review.Overview"
	if err := requireAdmin(actor); err != nil {
		return models.OverviewStats{}, fmt.Errorf("%s: %w", op, err)
	}

	var stats models.OverviewStats
	found, err := s.cache.Get(ctx, cache.KeyOverviewStats, &stats)
	if err != nil {
		s.log.Warn("overview cache read failed", sl.Err(err))
	}
	if found {
		return stats, nil
	}

	stats, err = s.repo.OverviewStats(ctx)
	if err != nil {
		return models.OverviewStats{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cache.KeyOverviewStats, stats, overviewTTL); err != nil {
		s.log.Warn("overview cache write failed", sl.Err(err))
	}
	return stats, nil
}
