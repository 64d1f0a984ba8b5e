package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// CreateUser в одной транзакции создаёт учётную запись, профиль,
// пустую заявку об оплате (not_uploaded) и выдаёт роли.
func (s *Storage) CreateUser(ctx context.Context, user models.User, profile models.Profile, roles ...models.Role) (string, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id string
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		user.Email, user.PasswordHash).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, email, affiliation, ticket_type)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, profile.FullName, user.Email, profile.Affiliation, profile.TicketType); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (user_id, receipt_status) VALUES ($1, $2)`,
		id, workflow.StatusNotUploaded); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, role := range roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
			 ON CONFLICT (user_id, role) DO NOTHING`, id, role); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetUserByEmail возвращает учётную запись по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u := &models.User{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return u, nil
}

// GetProfile возвращает профиль участника.
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p := &models.Profile{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, full_name, email, affiliation, ticket_type, created_at, updated_at
		 FROM profiles WHERE id = $1`, userID).
		Scan(&p.ID, &p.FullName, &p.Email, &p.Affiliation, &p.TicketType, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// ListUsers возвращает профили с ролями, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]models.UserView, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT p.id, p.full_name, p.email, p.affiliation, p.ticket_type, p.created_at, p.updated_at,
		        COALESCE(string_agg(r.role, ',' ORDER BY r.role), '')
		 FROM profiles p
		 LEFT JOIN user_roles r ON r.user_id = p.id
		 GROUP BY p.id
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UserView
	for rows.Next() {
		var (
			u     models.UserView
			roles string
		)
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Affiliation, &u.TicketType,
			&u.CreatedAt, &u.UpdatedAt, &roles); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.Roles = splitRoles(roles)
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func splitRoles(s string) []models.Role {
	roles := []models.Role{}
	if s == "" {
		return roles
	}
	for _, r := range strings.Split(s, ",") {
		roles = append(roles, models.Role(r))
	}
	return roles
}

// ListRoles возвращает роли пользователя.
func (s *Storage) ListRoles(ctx context.Context, userID string) ([]models.Role, error) {
	const op = "storage.ListRoles"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer func() {
		_ = rows.Close()
	}()

	roles := []models.Role{}
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return roles, nil
}

// HasRole сообщает, выдана ли пользователю роль.
func (s *Storage) HasRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	const op = "storage.HasRole"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, role).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return exists, nil
}

// InsertRole выдаёт роль. Возвращает false, если роль уже была выдана.
func (s *Storage) InsertRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	const op = "storage.InsertRole"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		 ON CONFLICT (user_id, role) DO NOTHING`, userID, role)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// nullString превращает пустую строку в NULL.
func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
