package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhive/studyhive/internal/app"
	"github.com/studyhive/studyhive/internal/domain"
	"github.com/studyhive/studyhive/internal/store"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *app.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir, err := os.MkdirTemp("", "studyhive-api-test-*")
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		st.Close()
		os.RemoveAll(tmpDir)
	})

	orch := app.NewOrchestrator(app.NewRegistry(), app.NewDirectory(st), st)
	h := &Handlers{Orch: orch}

	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/api/rooms", h.ListRooms)
	r.POST("/api/rooms", h.CreateRoom)
	return r, orch
}

func TestHealthHandler(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestCreateAndListRooms(t *testing.T) {
	r, _ := setupTestRouter(t)

	body, _ := json.Marshal(CreateRoomRequest{Name: "Exam Prep", Topic: "calculus"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/rooms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var room domain.Room
	require.NoError(t, json.NewDecoder(w.Body).Decode(&room))
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Exam Prep", room.Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/rooms", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var summaries []domain.RoomSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, room.ID, summaries[0].ID)
	assert.Equal(t, 0, summaries[0].Participants)
}

func TestCreateRoomRejectsMissingName(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/rooms", bytes.NewReader([]byte(`{"topic":"x"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
