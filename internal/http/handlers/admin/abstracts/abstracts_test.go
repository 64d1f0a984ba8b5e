package abstracts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/conference-registration/internal/http/middlewarectx"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListAbstracts(ctx context.Context, actor models.Actor, query string) ([]models.AbstractView, error) {
	args := m.Called(ctx, actor, query)
	if res := args.Get(0); res != nil {
		return res.([]models.AbstractView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) ApproveAbstract(ctx context.Context, actor models.Actor, id, notes string) ([]models.AbstractView, error) {
	args := m.Called(ctx, actor, id, notes)
	if res := args.Get(0); res != nil {
		return res.([]models.AbstractView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) RejectAbstract(ctx context.Context, actor models.Actor, id, notes string) ([]models.AbstractView, error) {
	args := m.Called(ctx, actor, id, notes)
	if res := args.Get(0); res != nil {
		return res.([]models.AbstractView), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const abstractID = "8d0e4a52-1f3b-4c67-b9a8-5e2d7c41f0aa"

var admin = models.Actor{UserID: "admin-1", Roles: []models.Role{models.RoleAdmin}}

func view(status workflow.Status) models.AbstractView {
	return models.AbstractView{
		Abstract: models.Abstract{ID: abstractID, Title: "Solar Roofs", Status: status},
		Owner:    models.Owner{FullName: "Ann Lee", Email: "ann@example.com"},
		Badge:    workflow.BadgeFor(workflow.DomainAbstract, status),
	}
}

func TestListHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("ListAbstracts", mock.Anything, admin, "").
		Return([]models.AbstractView{view(workflow.StatusPending)}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/abstracts", nil)
	req = req.WithContext(middlewarectx.WithActor(req.Context(), admin))
	rec := httptest.NewRecorder()
	NewList(newNoopLogger(), svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Solar Roofs"`)
	assert.Contains(t, rec.Body.String(), `"label":"Under Review"`)
	svc.AssertExpectations(t)
}

func TestDecisionHandler(t *testing.T) {
	tests := []struct {
		name           string
		reject         bool
		body           string
		setupMock      func(m *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "approve without notes",
			setupMock: func(m *MockService) {
				m.On("ApproveAbstract", mock.Anything, admin, abstractID, "").
					Return([]models.AbstractView{view(workflow.StatusApproved)}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"abstract_status":"approved"`,
		},
		{
			name: "approve with notes",
			body: `{"notes":"Great work"}`,
			setupMock: func(m *MockService) {
				m.On("ApproveAbstract", mock.Anything, admin, abstractID, "Great work").
					Return([]models.AbstractView{view(workflow.StatusApproved)}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "reject with notes",
			reject: true,
			body:   `{"notes":"Off topic"}`,
			setupMock: func(m *MockService) {
				m.On("RejectAbstract", mock.Anything, admin, abstractID, "Off topic").
					Return([]models.AbstractView{view(workflow.StatusRejected)}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"label":"Rejected"`,
		},
		{
			name:   "reject without notes",
			reject: true,
			setupMock: func(m *MockService) {
				m.On("RejectAbstract", mock.Anything, admin, abstractID, "").
					Return(nil, fmt.Errorf("review.RejectAbstract: %w", workflow.ErrMissingReason)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown abstract",
			setupMock: func(m *MockService) {
				m.On("ApproveAbstract", mock.Anything, admin, abstractID, "").
					Return(nil, fmt.Errorf("review.ApproveAbstract: %w", workflow.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			handler := NewApprove(newNoopLogger(), svc)
			if tt.reject {
				handler = NewReject(newNoopLogger(), svc)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/abstracts/"+abstractID+"/approve", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", abstractID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithActor(ctx, admin))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
