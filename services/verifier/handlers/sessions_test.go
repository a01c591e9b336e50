// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionsRouter(store ReportStore) *gin.Engine {
	router := gin.New()
	router.GET("/api/sessions/:sessionId/reports", GetSessionReports(store))
	router.DELETE("/api/sessions/:sessionId", DeleteSession(store))
	return router
}

func TestGetSessionReports_Success(t *testing.T) {
	store := &fakeStore{}
	_, err := store.Save(context.Background(), "sess-a", "answer", testReport())
	require.NoError(t, err)

	router := newSessionsRouter(store)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/sess-a/reports", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess-a", resp["session_id"])
	assert.Equal(t, float64(1), resp["count"])
	reports, ok := resp["reports"].([]interface{})
	require.True(t, ok)
	assert.Len(t, reports, 1)
}

func TestGetSessionReports_EmptySession(t *testing.T) {
	router := newSessionsRouter(&fakeStore{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/sess-none/reports", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["count"])
}

func TestGetSessionReports_SanitizesID(t *testing.T) {
	store := &fakeStore{}
	_, err := store.Save(context.Background(), "sess-a", "answer", testReport())
	require.NoError(t, err)

	router := newSessionsRouter(store)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/SESS-A/reports", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess-a", resp["session_id"])
	assert.Equal(t, float64(1), resp["count"])
}

func TestGetSessionReports_InvalidID(t *testing.T) {
	router := newSessionsRouter(&fakeStore{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/bad%20id/reports", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSessionReports_StoreError(t *testing.T) {
	router := newSessionsRouter(&fakeStore{listErr: errors.New("corrupt")})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/sess-a/reports", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetSessionReports_NoStore(t *testing.T) {
	router := newSessionsRouter(nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sessions/sess-a/reports", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeleteSession_Success(t *testing.T) {
	store := &fakeStore{}
	_, err := store.Save(context.Background(), "sess-a", "a1", testReport())
	require.NoError(t, err)
	_, err = store.Save(context.Background(), "sess-a", "a2", testReport())
	require.NoError(t, err)

	router := newSessionsRouter(store)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/sessions/sess-a", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "sess-a", resp["deleted_session_id"])
	assert.Equal(t, float64(2), resp["deleted_reports"])
	assert.Empty(t, store.saved)
}

func TestDeleteSession_StoreError(t *testing.T) {
	router := newSessionsRouter(&fakeStore{deleteErr: errors.New("locked")})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/sessions/sess-a", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDeleteSession_InvalidID(t *testing.T) {
	router := newSessionsRouter(&fakeStore{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/sessions/_bad", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
