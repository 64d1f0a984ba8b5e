// Package submission реализует загрузку квитанций и тезисов, проверку допуска
// к отправке тезисов и сборку личного кабинета участника.
package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/conference-registration/internal/cache"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/lib/thumbnail"
	"github.com/magabrotheeeer/conference-registration/internal/lib/upload"
	"github.com/magabrotheeeer/conference-registration/internal/metrics"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// Repository — операции хранилища, нужные загрузчику.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetPaymentByUser(ctx context.Context, userID string) (*models.Payment, error)
	UpdatePaymentUpload(ctx context.Context, rec models.UploadRecord) (*models.Payment, error)
	GetAbstractByUser(ctx context.Context, userID string) (*models.Abstract, error)
	UpsertAbstract(ctx context.Context, a models.Abstract) (*models.Abstract, error)
}

// ObjectStore — объектное хранилище файлов.
type ObjectStore interface {
	// Put записывает объект. Перезапись существующего ключа запрещена.
	Put(ctx context.Context, bucket, key string, body io.Reader) error
	// PublicURL возвращает публичную ссылку на объект.
	PublicURL(bucket, key string) string
}

// Cache описывает инвалидацию закэшированной сводки.
type Cache interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Service — загрузчик заявок участника.
type Service struct {
	repo    Repository
	store   ObjectStore
	cache   Cache
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// NewService создаёт сервис загрузки.
func NewService(repo Repository, store ObjectStore, cache Cache, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		store:   store,
		cache:   cache,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// objectKey строит ключ {userId}/{unixMillis}.{ext}.
func objectKey(userID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), strings.TrimPrefix(ext, "."))
}

// UploadReceipt загружает квитанцию об оплате и переводит заявку в pending.
func (s *Service) UploadReceipt(ctx context.Context, actor models.Actor, file upload.File) (*models.Payment, error) {
	const op = "submission.UploadReceipt"
	d := workflow.DomainPayment

	if err := workflow.ValidateFile(d, file.ContentType, file.Size); err != nil {
		s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current := workflow.StatusNotUploaded
	p, err := s.repo.GetPaymentByUser(ctx, actor.UserID)
	switch {
	case err == nil:
		current = p.Status
	case !errors.Is(err, workflow.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := workflow.CanUpload(d, current); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	key := objectKey(actor.UserID, now, file.Ext)

	body := file.Body
	var image []byte
	if strings.HasPrefix(file.ContentType, "image/") {
		image, err = io.ReadAll(file.Body)
		if err != nil {
			s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultFailed).Inc()
			return nil, fmt.Errorf("%s: %w: %w", op, workflow.ErrStorageWriteFailed, err)
		}
		body = bytes.NewReader(image)
	}

	if err := s.store.Put(ctx, d.Bucket(), key, body); err != nil {
		s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultFailed).Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, workflow.ErrStorageWriteFailed, err)
	}
	if image != nil {
		s.storeThumbnail(ctx, d.Bucket(), key, image)
	}

	updated, err := s.repo.UpdatePaymentUpload(ctx, models.UploadRecord{
		UserID:     actor.UserID,
		URL:        s.store.PublicURL(d.Bucket(), key),
		Status:     workflow.AfterUpload(current),
		UploadedAt: now,
	})
	if err != nil {
		s.orphaned(d, key, err)
		return nil, fmt.Errorf("%s: %w: %w", op, workflow.ErrRowWriteFailed, err)
	}

	s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultOK).Inc()
	s.onUploaded(ctx, d, actor.UserID)
	return updated, nil
}

// SubmitAbstract сохраняет тезисы. Файл можно не передавать, если ранее
// загруженный файл уже есть: тогда обновляются только метаданные.
func (s *Service) SubmitAbstract(ctx context.Context, actor models.Actor, meta workflow.AbstractMeta, file *upload.File) (*models.Abstract, error) {
	const op = "submission.SubmitAbstract"
	d := workflow.DomainAbstract

	meta = meta.Trimmed()
	if err := workflow.ValidateAbstractMeta(meta); err != nil {
		s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if file != nil {
		if err := workflow.ValidateFile(d, file.ContentType, file.Size); err != nil {
			s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultRejected).Inc()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	unlocked, err := s.CanSubmitAbstract(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !unlocked {
		return nil, fmt.Errorf("%s: %w", op, workflow.ErrGateLocked)
	}

	existing, err := s.repo.GetAbstractByUser(ctx, actor.UserID)
	if err != nil && !errors.Is(err, workflow.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	current := workflow.StatusNotUploaded
	if existing != nil {
		current = existing.Status
	}
	if err := workflow.CanUpload(d, current); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	uploadedAt := &now
	var url, key string
	switch {
	case file != nil:
		key = objectKey(actor.UserID, now, file.Ext)
		if err := s.store.Put(ctx, d.Bucket(), key, file.Body); err != nil {
			s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultFailed).Inc()
			return nil, fmt.Errorf("%s: %w: %w", op, workflow.ErrStorageWriteFailed, err)
		}
		url = s.store.PublicURL(d.Bucket(), key)
	case existing != nil && existing.Status.HasArtifact() && existing.AbstractURL != nil:
		url = *existing.AbstractURL
		uploadedAt = existing.UploadedAt
	default:
		s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultRejected).Inc()
		return nil, fmt.Errorf("%s: %w", op, workflow.ErrMissingFile)
	}

	saved, err := s.repo.UpsertAbstract(ctx, models.Abstract{
		UserID:      actor.UserID,
		Title:       meta.Title,
		Authors:     meta.Authors,
		Affiliation: meta.Affiliation,
		Subtheme:    meta.Subtheme,
		AbstractURL: &url,
		Status:      workflow.AfterUpload(current),
		UploadedAt:  uploadedAt,
	})
	if err != nil {
		if key != "" {
			s.orphaned(d, key, err)
		} else {
			s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultFailed).Inc()
		}
		return nil, fmt.Errorf("%s: %w: %w", op, workflow.ErrRowWriteFailed, err)
	}

	s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultOK).Inc()
	s.onUploaded(ctx, d, actor.UserID)
	return saved, nil
}

// CanSubmitAbstract проверяет допуск к тезисам: оплата пользователя подтверждена.
// Результат не кэшируется, каждый вызов читает текущее состояние.
func (s *Service) CanSubmitAbstract(ctx context.Context, userID string) (bool, error) {
	const op = "submission.CanSubmitAbstract"
	p, err := s.repo.GetPaymentByUser(ctx, userID)
	if errors.Is(err, workflow.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return workflow.AbstractUnlocked(p.Status), nil
}

// GetAbstract возвращает тезисы участника. Если тезисов ещё нет, возвращается nil без ошибки.
func (s *Service) GetAbstract(ctx context.Context, actor models.Actor) (*models.Abstract, error) {
	const op = "submission.GetAbstract"
	a, err := s.repo.GetAbstractByUser(ctx, actor.UserID)
	if errors.Is(err, workflow.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// Dashboard собирает личный кабинет: профиль, статусы заявок и допуск к тезисам.
func (s *Service) Dashboard(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	const op = "submission.Dashboard"

	profile, err := s.repo.GetProfile(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := &models.Dashboard{Profile: *profile}

	p, err := s.repo.GetPaymentByUser(ctx, actor.UserID)
	switch {
	case err == nil:
		out.Payment = p
		out.PaymentBadge = workflow.BadgeFor(workflow.DomainPayment, p.Status)
		out.CanSubmitAbstract = workflow.AbstractUnlocked(p.Status)
	case errors.Is(err, workflow.ErrNotFound):
		out.PaymentBadge = workflow.BadgeFor(workflow.DomainPayment, workflow.StatusNotUploaded)
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a, err := s.GetAbstract(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if a != nil {
		out.Abstract = a
		b := workflow.BadgeFor(workflow.DomainAbstract, a.Status)
		out.AbstractBadge = &b
	}
	return out, nil
}

func (s *Service) storeThumbnail(ctx context.Context, bucket, key string, image []byte) {
	thumb, err := thumbnail.Make(bytes.NewReader(image), thumbnail.DefaultWidth)
	if err != nil {
		s.log.Warn("thumbnail not generated", slog.String("key", key), sl.Err(err))
		return
	}
	if err := s.store.Put(ctx, bucket, thumbnail.Key(key), bytes.NewReader(thumb)); err != nil {
		s.log.Warn("thumbnail not stored", slog.String("key", key), sl.Err(err))
	}
}

// orphaned фиксирует объект, оставшийся без строки заявки. Объект не удаляется.
func (s *Service) orphaned(d workflow.Domain, key string, err error) {
	s.metrics.Uploads.WithLabelValues(string(d), metrics.ResultFailed).Inc()
	s.metrics.OrphanedObjects.WithLabelValues(string(d)).Inc()
	s.log.Warn("object stored without submission row",
		slog.String("domain", string(d)),
		slog.String("bucket", d.Bucket()),
		slog.String("key", key),
		sl.Err(err),
	)
}

// onUploaded сбрасывает закэшированную сводку администратора после успешной загрузки.
func (s *Service) onUploaded(ctx context.Context, d workflow.Domain, userID string) {
	if err := s.cache.Invalidate(ctx, cache.KeyOverviewStats); err != nil {
		s.log.Warn("failed to invalidate overview cache", slog.String("domain", string(d)), slog.String("user_id", userID), sl.Err(err))
	}
	s.log.Info("submission uploaded", slog.String("domain", string(d)), slog.String("user_id", userID))
}
