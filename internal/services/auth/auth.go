// Package auth содержит регистрацию участников и администраторов, вход по паролю
// и восстановление личности (models.Actor) из токена доступа.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/conference-registration/internal/lib/jwt"
	"github.com/magabrotheeeer/conference-registration/internal/lib/password"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser атомарно создаёт учётную запись, профиль, пустую заявку об оплате и роли.
	CreateUser(ctx context.Context, user models.User, profile models.Profile, roles ...models.Role) (string, error)
	// GetUserByEmail возвращает пользователя по email или workflow.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListRoles возвращает выданные роли.
	ListRoles(ctx context.Context, userID string) ([]models.Role, error)
}

// TokenMaker выпускает и проверяет токены доступа.
type TokenMaker interface {
	GenerateToken(userID, email string, roles []string) (string, error)
	ParseToken(token string) (*jwt.Claims, error)
}

// RegisterInput — данные формы регистрации.
type RegisterInput struct {
	FullName    string
	Email       string
	Password    string
	TicketType  models.TicketType
	Affiliation string
}

// Session — результат входа.
type Session struct {
	Token string       `json:"token"`
	Actor models.Actor `json:"-"`
	Roles []string     `json:"roles"`
}

// Service отвечает за регистрацию, вход и проверку токенов.
type Service struct {
	users     UserRepository
	tokens    TokenMaker
	adminCode string
	log       *slog.Logger
}

// NewService создаёт сервис. Пустой adminCode отключает регистрацию администраторов.
func NewService(users UserRepository, tokens TokenMaker, adminCode string, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		adminCode: adminCode,
		log:       log,
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт участника с ролью participant и возвращает его ID.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	const op = "auth.Register"
	id, err := s.create(ctx, in, models.RoleParticipant)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("participant registered", slog.String("user_id", id))
	return id, nil
}

// RegisterAdmin создаёт администратора, если передан верный код регистрации.
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterInput, code string) (string, error) {
	const op = "auth.RegisterAdmin"
	if s.adminCode == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) != 1 {
		return "", fmt.Errorf("%s: %w: invalid registration code", op, workflow.ErrForbidden)
	}
	id, err := s.create(ctx, in, models.RoleParticipant, models.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin registered", slog.String("user_id", id))
	return id, nil
}

func (s *Service) create(ctx context.Context, in RegisterInput, roles ...models.Role) (string, error) {
	hashed, err := password.GetHash(in.Password)
	if err != nil {
		return "", err
	}
	email := NormalizeEmail(in.Email)
	profile := models.Profile{FullName: strings.TrimSpace(in.FullName), Email: email}
	if a := strings.TrimSpace(in.Affiliation); a != "" {
		profile.Affiliation = &a
	}
	if in.TicketType != "" {
		tt := in.TicketType
		profile.TicketType = &tt
	}
	return s.users.CreateUser(ctx, models.User{Email: email, PasswordHash: hashed}, profile, roles...)
}

// Login проверяет пароль и выпускает токен с ролями пользователя.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, workflow.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, workflow.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, workflow.ErrInvalidCredentials)
	}

	roles, err := s.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	token, err := s.tokens.GenerateToken(user.ID, user.Email, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{
		Token: token,
		Actor: models.Actor{UserID: user.ID, Email: user.Email, Roles: roles},
		Roles: names,
	}, nil
}

// Actor восстанавливает личность из токена.
func (s *Service) Actor(_ context.Context, token string) (models.Actor, error) {
	const op = "auth.Actor"
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%s: %w: %w", op, workflow.ErrInvalidCredentials, err)
	}
	roles := make([]models.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, models.Role(r))
	}
	return models.Actor{UserID: claims.UserID, Email: claims.Email, Roles: roles}, nil
}
