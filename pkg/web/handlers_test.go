package web_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/safehands/guide/pkg/catalog"
	"github.com/safehands/guide/pkg/mocks"
	"github.com/safehands/guide/pkg/models"
	"github.com/safehands/guide/pkg/persistence"
	"github.com/safehands/guide/pkg/persistence/memory"
	"github.com/safehands/guide/pkg/web"
	"github.com/safehands/guide/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, store persistence.Store) *fiber.App {
	t.Helper()

	cat := catalog.Default()

	engine, err := workflow.NewEngine(workflow.Config{Store: store, Catalog: cat})
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(engine, cat, validator.New(validator.WithRequiredStructEnabled()), slog.Default())

	app := fiber.New()
	app.Post("/connect", handlers.Connect)
	app.Post("/sessions/:id/messages", handlers.PostMessage)
	app.Get("/workflow/state/:id", handlers.GetWorkflowState)
	app.Delete("/workflow/state/:id", handlers.ClearWorkflowState)
	app.Get("/workflow/interruption/:id", handlers.GetInterruption)
	app.Post("/workflow/interruption/:id/escalated", handlers.AcknowledgeInterruption)
	app.Get("/workflow/sessions", handlers.ListSessions)
	app.Get("/workflows", handlers.ListWorkflowTypes)
	app.Get("/stats", handlers.Stats)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(t, err)

			reader = bytes.NewReader(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func sendMessage(t *testing.T, app *fiber.App, sessionID, text string) models.TurnResult {
	t.Helper()

	status, body := doRequest(t, app, http.MethodPost, "/sessions/"+sessionID+"/messages", web.MessageRequest{Text: text})
	require.Equal(t, http.StatusOK, status, string(body))

	var result models.TurnResult
	require.NoError(t, json.Unmarshal(body, &result))

	return result
}

func TestAPIHandlers_Connect(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
		prefix         string
	}{
		{name: "no body", body: nil, expectedStatus: http.StatusCreated},
		{name: "with user", body: web.ConnectRequest{UserID: "alice"}, expectedStatus: http.StatusCreated, prefix: "alice_"},
		{name: "invalid user", body: web.ConnectRequest{UserID: "bad user!"}, expectedStatus: http.StatusBadRequest},
		{name: "invalid json", body: "{", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(t, memory.NewStore(time.Minute))

			status, body := doRequest(t, app, http.MethodPost, "/connect", tt.body)
			assert.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var response web.ConnectResponse
			require.NoError(t, json.Unmarshal(body, &response))
			assert.NotEmpty(t, response.SessionID)
			assert.True(t, strings.HasPrefix(response.SessionID, tt.prefix))
		})
	}
}

func TestAPIHandlers_ConversationFlow(t *testing.T) {
	app := setupTestApp(t, memory.NewStore(time.Minute))

	result := sendMessage(t, app, "s1", "I want to order food")
	assert.Equal(t, models.ResponseKindInstruction, result.ResponseKind)
	assert.Contains(t, result.ReplyText, "Step 1 of 8")

	result = sendMessage(t, app, "s1", "done")
	assert.Contains(t, result.ReplyText, "Step 2 of 8")

	status, body := doRequest(t, app, http.MethodGet, "/workflow/state/s1", nil)
	require.Equal(t, http.StatusOK, status)

	var state web.StateResponse
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, 1, state.CurrentStepIndex)
	assert.Equal(t, 8, state.TotalSteps)
	assert.Equal(t, "Search for the food you want to order", state.CurrentStep.Text)
	assert.True(t, state.WaitingForConfirmation)
	assert.Equal(t, "I want to order food", state.UserInput)
	assert.NotNil(t, state.Context)
	assert.Contains(t, string(body), `"context":{}`)

	sendMessage(t, app, "s1", "how do I search for a restaurant?")

	status, body = doRequest(t, app, http.MethodGet, "/workflow/interruption/s1", nil)
	require.Equal(t, http.StatusOK, status)

	var record models.InterruptionRecord
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "how do I search for a restaurant?", record.UserText)
	assert.Equal(t, 1, record.StepIndexAtTime)

	status, body = doRequest(t, app, http.MethodPost, "/workflow/interruption/s1/escalated", nil)
	require.Equal(t, http.StatusOK, status)

	var ack web.AcknowledgeResponse
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.True(t, ack.Acknowledged)

	status, _ = doRequest(t, app, http.MethodPost, "/workflow/interruption/s1/escalated", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodGet, "/workflow/interruption/s1", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doRequest(t, app, http.MethodGet, "/workflow/sessions", nil)
	require.Equal(t, http.StatusOK, status)

	var sessions web.SessionsResponse
	require.NoError(t, json.Unmarshal(body, &sessions))
	assert.Equal(t, []string{"s1"}, sessions.Sessions)
	assert.Equal(t, 1, sessions.Count)

	status, body = doRequest(t, app, http.MethodDelete, "/workflow/state/s1", nil)
	require.Equal(t, http.StatusOK, status)

	var cleared web.ClearResponse
	require.NoError(t, json.Unmarshal(body, &cleared))
	assert.True(t, cleared.Cleared)

	status, body = doRequest(t, app, http.MethodGet, "/workflow/state/s1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "not_found")
}

func TestAPIHandlers_PostMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "missing text", body: map[string]any{}},
		{name: "empty text", body: web.MessageRequest{Text: ""}},
		{name: "too long", body: web.MessageRequest{Text: strings.Repeat("a", 2001)}},
		{name: "invalid json", body: "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(t, memory.NewStore(time.Minute))

			status, body := doRequest(t, app, http.MethodPost, "/sessions/s1/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, string(body), "validation_error")
		})
	}
}

func TestAPIHandlers_StoreUnavailable(t *testing.T) {
	store := &mocks.MockStore{}
	unavailable := persistence.NewUnavailableError("get", "workflow:s1", errors.New("connection refused"))

	store.On("Get", mock.Anything, mock.Anything).Return(nil, unavailable)
	store.On("ListKeys", mock.Anything, mock.Anything).Return(nil, unavailable)
	store.On("HealthCheck", mock.Anything).Return(errors.New("connection refused"))

	app := setupTestApp(t, store)

	status, body := doRequest(t, app, http.MethodGet, "/workflow/state/s1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotContains(t, string(body), "connection refused")

	status, _ = doRequest(t, app, http.MethodGet, "/workflow/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	result := sendMessage(t, app, "s1", "order food")
	assert.Equal(t, models.ResponseKindError, result.ResponseKind)

	status, body = doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), `"status":"unhealthy"`)
}

func TestAPIHandlers_StatsAndHealth(t *testing.T) {
	app := setupTestApp(t, memory.NewStore(time.Minute))

	sendMessage(t, app, "a", "order food")
	sendMessage(t, app, "b", "order food")

	status, body := doRequest(t, app, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, status)

	var stats web.StatsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 2, stats.ActiveWorkflows)
	assert.Equal(t, []string{catalog.FoodOrderWorkflow}, stats.WorkflowTypes)

	status, body = doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"healthy"`)

	status, body = doRequest(t, app, http.MethodGet, "/workflows", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), catalog.FoodOrderWorkflow)
}
