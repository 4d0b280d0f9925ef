package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/middleware"
	"github.com/judy4534/studentSystem/internal/models"
	"github.com/judy4534/studentSystem/internal/service"
)

type fakeNotificationStore struct {
	byID   map[string]*models.Notification
	byUser map[string][]models.Notification
	read   []string
}

func (f *fakeNotificationStore) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	return f.byUser[userID], nil
}

func (f *fakeNotificationStore) FindByID(_ context.Context, id string) (*models.Notification, error) {
	if n, ok := f.byID[id]; ok {
		return n, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	return nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id string) error {
	f.read = append(f.read, id)
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, userID string) error {
	return nil
}

func newNotificationTestContext(t *testing.T, method, path string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, nil)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestNotificationHandlerListRequiresAuth(t *testing.T) {
	handler := NewNotificationHandler(service.NewNotificationService(&fakeNotificationStore{}, nil, nil))

	c, rec := newNotificationTestContext(t, http.MethodGet, "/notifications", nil)
	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandlerListReturnsOwnRows(t *testing.T) {
	store := &fakeNotificationStore{
		byUser: map[string][]models.Notification{
			"u1": {{ID: "n1", UserID: "u1", Title: "تم قبول طلبك"}},
		},
	}
	handler := NewNotificationHandler(service.NewNotificationService(store, nil, nil))

	c, rec := newNotificationTestContext(t, http.MethodGet, "/notifications", &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "n1", envelope.Data[0].ID)
}

func TestNotificationHandlerMarkReadRejectsForeignRow(t *testing.T) {
	store := &fakeNotificationStore{
		byID: map[string]*models.Notification{
			"n1": {ID: "n1", UserID: "someone-else"},
		},
	}
	handler := NewNotificationHandler(service.NewNotificationService(store, nil, nil))

	c, rec := newNotificationTestContext(t, http.MethodPut, "/notifications/n1/read", &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "n1"}}
	handler.MarkRead(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.read)
}

func TestNotificationHandlerMarkReadOwnRow(t *testing.T) {
	store := &fakeNotificationStore{
		byID: map[string]*models.Notification{
			"n1": {ID: "n1", UserID: "u1"},
		},
	}
	handler := NewNotificationHandler(service.NewNotificationService(store, nil, nil))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	})
	r.PUT("/notifications/:id/read", handler.MarkRead)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/notifications/n1/read", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"n1"}, store.read)
}
