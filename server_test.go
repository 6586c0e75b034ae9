package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/muhammadolammi/thumbworker/internal/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h EventHandler, profiles ProfileReader) http.Handler {
	return newRouter(&WorkerConfig{Generator: h, DB: profiles}, prometheus.NewRegistry())
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&fakeHandler{}, &fakeProfileReader{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&fakeHandler{}, &fakeProfileReader{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostEvents(t *testing.T) {
	h := &fakeHandler{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events",
		strings.NewReader(`{"bucket":"images","name":"profile_photos/u1/p.jpg","contentType":"image/jpeg"}`))
	newTestRouter(h, &fakeProfileReader{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, h.events, 1)
	assert.Equal(t, "images", h.events[0].Bucket)
}

func TestPostEventsEmptyBody(t *testing.T) {
	h := &fakeHandler{}
	w := httptest.NewRecorder()
	newTestRouter(h, &fakeProfileReader{}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, h.events)
}

func TestPostEventsFailureIs500(t *testing.T) {
	h := &fakeHandler{fail: map[string]error{"profile_photos/u1/p.jpg": errors.New("boom")}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events",
		strings.NewReader(`{"bucket":"images","name":"profile_photos/u1/p.jpg","contentType":"image/jpeg"}`))
	newTestRouter(h, &fakeProfileReader{}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetProfilePhoto(t *testing.T) {
	profiles := &fakeProfileReader{rec: database.ProfileRecord{
		Key:   "users/u1/profile/photo",
		Value: json.RawMessage(`{"path":"https://s/p.jpg","thumbnail":"https://s/thumb_p.jpg"}`),
	}}
	w := httptest.NewRecorder()
	newTestRouter(&fakeHandler{}, profiles).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u1/profile/photo", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","payload":{"path":"https://s/p.jpg","thumbnail":"https://s/thumb_p.jpg"}}`, w.Body.String())
}

func TestGetProfilePhotoNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&fakeHandler{}, &fakeProfileReader{err: sql.ErrNoRows}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/nobody/profile/photo", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
