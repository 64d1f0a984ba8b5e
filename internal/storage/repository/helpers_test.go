package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/conference-registration/internal/migrations"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")
	t.Cleanup(func() {
		_ = storage.Close()
	})

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}

// TestDataFactory создаёт тестовые данные через публичные методы Storage.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateParticipant регистрирует участника и возвращает его id.
func (f *TestDataFactory) CreateParticipant(t *testing.T, fullName, email string) string {
	t.Helper()
	ticket := models.TicketAdult
	id, err := f.storage.CreateUser(context.Background(),
		models.User{Email: email, PasswordHash: "hash"},
		models.Profile{FullName: fullName, TicketType: &ticket},
		models.RoleParticipant)
	require.NoError(t, err)
	return id
}

// UploadReceipt переводит оплату участника в pending.
func (f *TestDataFactory) UploadReceipt(t *testing.T, userID string) *models.Payment {
	t.Helper()
	p, err := f.storage.UpdatePaymentUpload(context.Background(), models.UploadRecord{
		UserID:     userID,
		URL:        "http://files/receipts/" + userID + "/1.pdf",
		Status:     workflow.StatusPending,
		UploadedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return p
}

// SubmitAbstract создаёт тезисы участника в статусе pending.
func (f *TestDataFactory) SubmitAbstract(t *testing.T, userID, title string) *models.Abstract {
	t.Helper()
	url := "http://files/abstracts/" + userID + "/1.pdf"
	now := time.Now().UTC()
	a, err := f.storage.UpsertAbstract(context.Background(), models.Abstract{
		UserID:      userID,
		Title:       title,
		Authors:     "A. Author",
		Affiliation: "University",
		Subtheme:    "green_technology",
		AbstractURL: &url,
		Status:      workflow.StatusPending,
		UploadedAt:  &now,
	})
	require.NoError(t, err)
	return a
}
