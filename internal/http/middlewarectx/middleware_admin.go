package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/conference-registration/internal/http/response"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/models"
)

// RoleChecker читает выданные роли из хранилища.
type RoleChecker interface {
	HasRole(ctx context.Context, userID string, role models.Role) (bool, error)
}

// AdminOnly пропускает только пользователей с ролью admin. Роль проверяется
// по хранилищу, а не по токену: выданная роль действует без повторного входа.
// Должна стоять после JWTMiddleware.
func AdminOnly(roles RoleChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminOnly"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			actor, ok := ActorFrom(r.Context())
			if !ok {
				log.Warn("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			isAdmin, err := roles.HasRole(r.Context(), actor.UserID, models.RoleAdmin)
			if err != nil {
				log.Error("failed to look up admin role", slog.String("user_id", actor.UserID), sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}
			if !isAdmin {
				log.Warn("admin role required", slog.String("user_id", actor.UserID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("Access denied: admin role required"))
				return
			}

			if !actor.IsAdmin() {
				actor.Roles = append(append([]models.Role(nil), actor.Roles...), models.RoleAdmin)
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
