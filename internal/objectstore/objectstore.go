// Package objectstore хранит загруженные файлы в бакетах gocloud.dev/blob
// и отдаёт их по публичным ссылкам.
//
// Логические бакеты (receipts, abstracts) живут префиксами в одном корневом
// бакете: локальном каталоге (fileblob) или облачном хранилище по URL.
// Запись без перезаписи: повторная запись по существующему ключу
// возвращает ErrAlreadyExists.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"github.com/magabrotheeeer/conference-registration/internal/config"
)

var (
	ErrAlreadyExists = errors.New("object already exists")
	ErrInvalidKey    = errors.New("invalid object key")
	ErrUnknownBucket = errors.New("unknown bucket")
)

// Store раскладывает объекты по ключам {bucket}/{key} корневого бакета.
type Store struct {
	bucket     *blob.Bucket
	publicBase string
	buckets    map[string]struct{}
}

// Open открывает корневой бакет. Пустой BucketURL означает каталог RootDir
// на локальном диске.
func Open(ctx context.Context, cfg config.ObjectStore, buckets ...string) (*Store, error) {
	const op = "objectstore.Open"

	var (
		b   *blob.Bucket
		err error
	)
	if cfg.BucketURL != "" {
		b, err = blob.OpenBucket(ctx, cfg.BucketURL)
	} else {
		b, err = fileblob.OpenBucket(cfg.RootDir, &fileblob.Options{CreateDir: true, NoTempDir: true})
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewStore(b, cfg.PublicBaseURL, buckets...), nil
}

// NewStore оборачивает уже открытый бакет.
func NewStore(b *blob.Bucket, publicBase string, buckets ...string) *Store {
	s := &Store{
		bucket:     b,
		publicBase: strings.TrimRight(publicBase, "/"),
		buckets:    make(map[string]struct{}, len(buckets)),
	}
	for _, name := range buckets {
		s.buckets[name] = struct{}{}
	}
	return s
}

// Close закрывает корневой бакет.
func (s *Store) Close() error {
	return s.bucket.Close()
}

func (s *Store) resolve(bucket, key string) (string, error) {
	if _, ok := s.buckets[bucket]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	clean := path.Clean("/" + key)
	if key == "" || strings.HasSuffix(key, "/") || clean != "/"+key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return bucket + "/" + key, nil
}

// Put записывает объект. Существующий объект не перезаписывается.
// Если тело не дочитано, запись отменяется и объект не появляется.
func (s *Store) Put(ctx context.Context, bucket, key string, body io.Reader) error {
	const op = "objectstore.Put"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	full, err := s.resolve(bucket, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	exists, err := s.bucket.Exists(ctx, full)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%s: %w: %s", op, ErrAlreadyExists, full)
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := s.bucket.NewWriter(wctx, full, &blob.WriterOptions{IfNotExist: true})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(w, body); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.Close(); err != nil {
		if gcerrors.Code(err) == gcerrors.FailedPrecondition {
			return fmt.Errorf("%s: %w: %s", op, ErrAlreadyExists, full)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublicURL возвращает публичную ссылку на объект.
func (s *Store) PublicURL(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.publicBase + "/" + url.PathEscape(bucket) + "/" + strings.Join(parts, "/")
}

// Handler отдаёт объекты по пути /{bucket}/{key}. Листинг запрещён.
// Монтируется под префиксом через http.StripPrefix.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		full, err := s.resolve(bucket, key)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		rd, err := s.bucket.NewReader(r.Context(), full, nil)
		if err != nil {
			if gcerrors.Code(err) != gcerrors.NotFound {
				http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
				return
			}
			http.NotFound(w, r)
			return
		}
		defer rd.Close()
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, path.Base(key), rd.ModTime(), rd)
	})
}
