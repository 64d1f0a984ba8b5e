package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/conference-registration/internal/http/response"
)

// limiterIdleTTL — после такого простоя limiter ключа удаляется.
const limiterIdleTTL = 10 * time.Minute

// KeyFunc выбирает ключ, по которому считается частота запросов.
type KeyFunc func(r *http.Request) string

// ByActor считает запросы отдельно для каждого пользователя.
// Без идентификации ключом служит адрес клиента.
func ByActor(r *http.Request) string {
	if actor, ok := ActorFrom(r.Context()); ok {
		return "user:" + actor.UserID
	}
	return ByClientIP(r)
}

// ByClientIP считает запросы по адресу клиента из RemoteAddr.
func ByClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	items     map[string]*keyedLimiter
	lastSweep time.Time
	now       func() time.Time
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for k, it := range s.items {
			if now.Sub(it.lastSeen) > limiterIdleTTL {
				delete(s.items, k)
			}
		}
		s.lastSweep = now
	}

	it, ok := s.items[key]
	if !ok {
		it = &keyedLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.items[key] = it
	}
	it.lastSeen = now
	return it.limiter
}

// RateLimitMiddleware ограничивает частоту запросов к группе маршрутов:
// rps запросов в секунду с запасом burst для каждого ключа.
func RateLimitMiddleware(log *slog.Logger, rps float64, burst int, key KeyFunc) func(http.Handler) http.Handler {
	set := &limiterSet{
		rps:   rate.Limit(rps),
		burst: burst,
		items: make(map[string]*keyedLimiter),
		now:   time.Now,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if !set.get(k).Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path), slog.String("key", k))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
