package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/mediagate"
	mghttp "github.com/sagarc03/mediagate/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecords is a mock implementation of http.Records
type MockRecords struct {
	mock.Mock
}

func (m *MockRecords) CreateUser(ctx context.Context, u mediagate.NewUser) (mediagate.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(mediagate.User), args.Error(1)
}

func (m *MockRecords) ListUsers(ctx context.Context) ([]mediagate.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]mediagate.User), args.Error(1)
}

func (m *MockRecords) CreateTodo(ctx context.Context, t mediagate.NewTodo) (mediagate.Todo, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(mediagate.Todo), args.Error(1)
}

func (m *MockRecords) ListTodos(ctx context.Context, userID int64) ([]mediagate.Todo, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]mediagate.Todo), args.Error(1)
}

func recordsRouter(records *MockRecords) http.Handler {
	return newHandler(mghttp.HandlerConfig{}, new(MockService), records)
}

var createdAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func TestRecords_CreateUser(t *testing.T) {
	records := new(MockRecords)
	payload := mediagate.NewUser{Email: "ada@example.com", Name: "Ada", Password: "correct horse"}
	records.On("CreateUser", mock.Anything, payload).
		Return(mediagate.User{ID: 1, Email: "ada@example.com", Name: "Ada", CreatedAt: createdAt}, nil)

	body := `{"email":"ada@example.com","name":"Ada","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ada@example.com", got["email"])
	assert.NotContains(t, got, "password")
	assert.NotContains(t, rec.Body.String(), "correct horse")
	records.AssertExpectations(t)
}

func TestRecords_CreateUser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"duplicate email", fmt.Errorf("insert user: %w", mediagate.ErrConflict), http.StatusConflict, "conflict"},
		{"validation", fmt.Errorf("create user: %w: email must be a valid email", mediagate.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{"database down", fmt.Errorf("insert user: connection refused"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := new(MockRecords)
			records.On("CreateUser", mock.Anything, mock.Anything).Return(mediagate.User{}, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"email":"a@b.c","name":"A","password":"longenough"}`))
			rec := httptest.NewRecorder()
			recordsRouter(records).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestRecords_CreateUser_InvalidJSON(t *testing.T) {
	records := new(MockRecords)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"email":`))
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
	records.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestRecords_ListUsers(t *testing.T) {
	records := new(MockRecords)
	records.On("ListUsers", mock.Anything).Return([]mediagate.User{
		{ID: 1, Email: "ada@example.com", Name: "Ada", CreatedAt: createdAt},
		{ID: 2, Email: "bob@example.com", Name: "Bob", CreatedAt: createdAt},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Items []mediagate.User `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "bob@example.com", got.Items[1].Email)
}

func TestRecords_ListUsers_Empty(t *testing.T) {
	records := new(MockRecords)
	records.On("ListUsers", mock.Anything).Return([]mediagate.User{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestRecords_ListTodos(t *testing.T) {
	records := new(MockRecords)
	records.On("ListTodos", mock.Anything, int64(7)).Return([]mediagate.Todo{
		{ID: 3, Title: "ship it", UserID: 7, CreatedAt: createdAt},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/todos?userId=7", nil)
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"ship it"`)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	records.AssertExpectations(t)
}

func TestRecords_ListTodos_BadUserID(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing", ""},
		{"empty", "?userId="},
		{"not a number", "?userId=abc"},
		{"fraction", "?userId=1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := new(MockRecords)

			req := httptest.NewRequest(http.MethodGet, "/api/todos"+tt.query, nil)
			rec := httptest.NewRecorder()
			recordsRouter(records).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "userId")
			records.AssertNotCalled(t, "ListTodos", mock.Anything, mock.Anything)
		})
	}
}

func TestRecords_CreateTodo(t *testing.T) {
	records := new(MockRecords)
	payload := mediagate.NewTodo{Title: "write tests", UserID: 7}
	records.On("CreateTodo", mock.Anything, payload).
		Return(mediagate.Todo{ID: 9, Title: "write tests", UserID: 7, CreatedAt: createdAt}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{"title":"write tests","userId":7}`))
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":9`)
	records.AssertExpectations(t)
}

func TestRecords_CreateTodo_UnknownUser(t *testing.T) {
	records := new(MockRecords)
	records.On("CreateTodo", mock.Anything, mock.Anything).
		Return(mediagate.Todo{}, fmt.Errorf("insert todo: %w: unknown user", mediagate.ErrInvalidInput))

	req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(`{"title":"orphan","userId":404}`))
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecords_UnsupportedMethod(t *testing.T) {
	records := new(MockRecords)

	req := httptest.NewRequest(http.MethodDelete, "/api/users", nil)
	rec := httptest.NewRecorder()
	recordsRouter(records).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
