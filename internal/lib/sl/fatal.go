package sl

import (
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// flushTimeout ограничивает ожидание отправки событий перед выходом.
const flushTimeout = 2 * time.Second

// Reporter — часть *sentry.Hub, нужная Fatal.
type Reporter interface {
	CaptureException(exception error) *sentry.EventID
	Flush(timeout time.Duration) bool
}

var exit = os.Exit

// Fatal логирует ошибку, отправляет её в Sentry и завершает процесс с кодом 1.
// os.Exit не выполняет defer, поэтому события сбрасываются здесь явно.
// Без настроенного клиента Sentry отправка ничего не делает.
func Fatal(log *slog.Logger, hub Reporter, msg string, err error) {
	log.Error(msg, Err(err))
	hub.CaptureException(err)
	hub.Flush(flushTimeout)
	exit(1)
}
