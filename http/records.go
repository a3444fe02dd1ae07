package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sagarc03/mediagate"
)

const maxRecordBody = 1 << 20

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload mediagate.NewUser
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.records.CreateUser(r.Context(), payload)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.records.ListUsers(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, itemsResponse[mediagate.User]{Items: users})
}

func (h *Handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var payload mediagate.NewTodo
	if !decodeJSON(w, r, &payload) {
		return
	}

	todo, err := h.records.CreateTodo(r.Context(), payload)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, todo)
}

func (h *Handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "userId query parameter is required")
		return
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "userId must be an integer")
		return
	}

	todos, err := h.records.ListTodos(r.Context(), userID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, itemsResponse[mediagate.Todo]{Items: todos})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Request body must be a JSON object")
		return false
	}
	return true
}
