package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conciergehq/concierge-backend/internal/models"
)

func TestGetSessionNotFound(t *testing.T) {
	app, _, _ := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionAdminLifecycle(t *testing.T) {
	app, _, _ := newTestApp()

	_, chat := postJSON(t, app, "/chat", map[string]string{
		"message": "I want to book an appointment",
	})
	sid := chat["session_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sid, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, sid, view["session_id"])
	assert.Equal(t, models.BookingStateCollecting, view["booking_state"])
	assert.Equal(t, false, view["has_document"])

	req = httptest.NewRequest(http.MethodGet, "/sessions", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.EqualValues(t, 1, list["count"])

	req = httptest.NewRequest(http.MethodDelete, "/sessions/"+sid, nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/sessions/"+sid, nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAppointmentEndpoints(t *testing.T) {
	app, store, _ := newTestApp()

	created, err := store.CreateAppointment(context.Background(), &models.Appointment{
		SessionID: "abc",
		Name:      "John Doe",
		Phone:     "5551234567",
		Email:     "john@example.com",
		Date:      "2025-06-09",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/appointments/"+created.ID, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	appt := body["appointment"].(map[string]any)
	assert.Equal(t, "John Doe", appt["name"])

	req = httptest.NewRequest(http.MethodGet, "/appointments", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.EqualValues(t, 1, list["count"])

	req = httptest.NewRequest(http.MethodGet, "/appointments/APT99999", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
