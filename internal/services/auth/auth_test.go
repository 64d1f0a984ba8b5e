package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/conference-registration/internal/lib/jwt"
	"github.com/magabrotheeeer/conference-registration/internal/lib/password"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/services/auth"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User, profile models.Profile, roles ...models.Role) (string, error) {
	args := m.Called(ctx, user, profile, roles)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListRoles(ctx context.Context, userID string) ([]models.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Role), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMaker() *customjwt.Maker {
	return customjwt.NewMaker("test-secret", time.Hour)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		in         auth.RegisterInput
		setupMocks func(r *UserRepoMock)
		wantID     string
		wantErr    error
	}{
		{
			name: "participant with affiliation",
			in: auth.RegisterInput{
				FullName:    " Ann Lee ",
				Email:       " Ann@Example.COM ",
				Password:    "password123",
				TicketType:  models.TicketStudent,
				Affiliation: "State University",
			},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", ctx,
					mock.MatchedBy(func(u models.User) bool {
						return u.Email == "ann@example.com" && password.CompareHash(u.PasswordHash, "password123") == nil
					}),
					mock.MatchedBy(func(p models.Profile) bool {
						return p.FullName == "Ann Lee" && p.Email == "ann@example.com" &&
							p.Affiliation != nil && *p.Affiliation == "State University" &&
							p.TicketType != nil && *p.TicketType == models.TicketStudent
					}),
					[]models.Role{models.RoleParticipant},
				).Return("user-1", nil).Once()
			},
			wantID: "user-1",
		},
		{
			name: "optional fields left empty",
			in:   auth.RegisterInput{FullName: "Bob", Email: "bob@example.com", Password: "password123"},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", ctx, mock.Anything,
					mock.MatchedBy(func(p models.Profile) bool {
						return p.Affiliation == nil && p.TicketType == nil
					}),
					[]models.Role{models.RoleParticipant},
				).Return("user-2", nil).Once()
			},
			wantID: "user-2",
		},
		{
			name: "email already registered",
			in:   auth.RegisterInput{FullName: "Ann", Email: "ann@example.com", Password: "password123"},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return("", workflow.ErrEmailTaken).Once()
			},
			wantErr: workflow.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := auth.NewService(repo, newMaker(), "", newNoopLogger())

			id, err := svc.Register(ctx, tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_RegisterAdmin(t *testing.T) {
	ctx := context.Background()
	in := auth.RegisterInput{FullName: "Root", Email: "root@example.com", Password: "password123"}

	tests := []struct {
		name       string
		configured string
		code       string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:       "valid code grants admin",
			configured: "letmein",
			code:       "letmein",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", ctx, mock.Anything, mock.Anything,
					[]models.Role{models.RoleParticipant, models.RoleAdmin}).Return("admin-1", nil).Once()
			},
		},
		{
			name:       "wrong code",
			configured: "letmein",
			code:       "guess",
			setupMocks: func(r *UserRepoMock) {},
			wantErr:    workflow.ErrForbidden,
		},
		{
			name:       "admin sign-up disabled",
			configured: "",
			code:       "",
			setupMocks: func(r *UserRepoMock) {},
			wantErr:    workflow.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := auth.NewService(repo, newMaker(), tt.configured, newNoopLogger())

			_, err := svc.RegisterAdmin(ctx, in, tt.code)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := password.GetHash("password123")
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "ann@example.com", PasswordHash: hash}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
		wantRoles  []string
	}{
		{
			name:     "valid credentials",
			email:    "ANN@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", ctx, "ann@example.com").Return(user, nil).Once()
				r.On("ListRoles", ctx, "user-1").
					Return([]models.Role{models.RoleParticipant, models.RoleAdmin}, nil).Once()
			},
			wantRoles: []string{"participant", "admin"},
		},
		{
			name:     "wrong password",
			email:    "ann@example.com",
			password: "nope",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", ctx, "ann@example.com").Return(user, nil).Once()
			},
			wantErr: workflow.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, workflow.ErrNotFound).Once()
			},
			wantErr: workflow.ErrInvalidCredentials,
		},
		{
			name:     "database error is not masked",
			email:    "ann@example.com",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", ctx, "ann@example.com").Return(nil, errors.New("conn refused")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			maker := newMaker()
			svc := auth.NewService(repo, maker, "", newNoopLogger())

			session, err := svc.Login(ctx, tt.email, tt.password)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantRoles == nil:
				require.Error(t, err)
				assert.NotErrorIs(t, err, workflow.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRoles, session.Roles)
				assert.True(t, session.Actor.IsAdmin())

				claims, err := maker.ParseToken(session.Token)
				require.NoError(t, err)
				assert.Equal(t, "user-1", claims.UserID)
				assert.Equal(t, tt.wantRoles, claims.Roles)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Actor(t *testing.T) {
	ctx := context.Background()
	maker := newMaker()
	svc := auth.NewService(new(UserRepoMock), maker, "", newNoopLogger())

	token, err := maker.GenerateToken("user-1", "ann@example.com", []string{"participant"})
	require.NoError(t, err)

	actor, err := svc.Actor(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.Actor{UserID: "user-1", Email: "ann@example.com", Roles: []models.Role{models.RoleParticipant}}, actor)
	assert.False(t, actor.IsAdmin())

	foreign, err := customjwt.NewMaker("other-secret", time.Hour).GenerateToken("user-1", "ann@example.com", []string{"admin"})
	require.NoError(t, err)
	_, err = svc.Actor(ctx, foreign)
	assert.ErrorIs(t, err, workflow.ErrInvalidCredentials)

	_, err = svc.Actor(ctx, "garbage")
	assert.ErrorIs(t, err, workflow.ErrInvalidCredentials)
}
