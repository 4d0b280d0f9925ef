package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judy4534/studentSystem/internal/models"
	"github.com/judy4534/studentSystem/internal/service"
)

type fakeDepartmentStore struct {
	byID    map[string]*models.Department
	deleted []string
}

func (f *fakeDepartmentStore) List(_ context.Context) ([]models.DepartmentDetail, error) {
	out := make([]models.DepartmentDetail, 0, len(f.byID))
	for _, d := range f.byID {
		out = append(out, models.DepartmentDetail{Department: *d})
	}
	return out, nil
}

func (f *fakeDepartmentStore) FindByID(_ context.Context, id string) (*models.Department, error) {
	if d, ok := f.byID[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDepartmentStore) Create(_ context.Context, d *models.Department) error {
	if f.byID == nil {
		f.byID = map[string]*models.Department{}
	}
	f.byID[d.ID] = d
	return nil
}

func (f *fakeDepartmentStore) Update(_ context.Context, d *models.Department) error {
	f.byID[d.ID] = d
	return nil
}

func (f *fakeDepartmentStore) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCourseCounter struct {
	counts map[string]int
}

func (f *fakeCourseCounter) CountByDepartment(_ context.Context, departmentID string) (int, error) {
	return f.counts[departmentID], nil
}

func newDepartmentHandler(store *fakeDepartmentStore, counter *fakeCourseCounter) *DepartmentHandler {
	return NewDepartmentHandler(service.NewDepartmentService(store, counter, nil, nil))
}

func TestDepartmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDepartmentHandler(&fakeDepartmentStore{}, &fakeCourseCounter{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := bytes.NewBufferString(`{"name":"علوم الحاسوب","head":"د. أحمد"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/departments", body)
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDepartmentHandlerDeleteBlockedWhileCoursesRemain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeDepartmentStore{byID: map[string]*models.Department{
		"d1": {ID: "d1", Name: "علوم الحاسوب"},
	}}
	handler := newDepartmentHandler(store, &fakeCourseCounter{counts: map[string]int{"d1": 3}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/departments/d1", nil)
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	handler.Delete(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, store.deleted)
}

func TestDepartmentHandlerDeleteEmptyDepartment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeDepartmentStore{byID: map[string]*models.Department{
		"d1": {ID: "d1", Name: "الرياضيات"},
	}}
	handler := newDepartmentHandler(store, &fakeCourseCounter{})

	r := gin.New()
	r.DELETE("/departments/:id", handler.Delete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/departments/d1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"d1"}, store.deleted)
}
