// Package web provides HTTP handlers for conversations, workflow state and interruptions.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/safehands/guide/pkg/models"
)

// Engine is the workflow surface the handlers drive.
type Engine interface {
	ProcessTurn(ctx context.Context, sessionID, userText string) models.TurnResult
	GetWorkflowState(ctx context.Context, sessionID string) (*models.WorkflowState, error)
	ClearWorkflowState(ctx context.Context, sessionID string) (bool, error)
	GetPendingInterruption(ctx context.Context, sessionID string) (*models.InterruptionRecord, error)
	AcknowledgeInterruption(ctx context.Context, sessionID string) (bool, error)
	ListActiveSessions(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) (string, bool)
}

// WorkflowTypes lists the workflow types a catalog offers.
type WorkflowTypes interface {
	Types() []string
}

type APIHandlers struct {
	engine    Engine
	workflows WorkflowTypes
	validator *validator.Validate
	logger    *slog.Logger
	startedAt time.Time
}

func NewAPIHandlers(
	engine Engine,
	workflows WorkflowTypes,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		workflows: workflows,
		validator: validator,
		logger:    logger.With("module", "web"),
		startedAt: time.Now().UTC(),
	}
}

func (h *APIHandlers) Connect(c fiber.Ctx) error {
	var req ConnectRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sessionID := uuid.NewString()
	if req.UserID != "" {
		sessionID = req.UserID + "_" + sessionID[:8]
	}

	h.logger.InfoContext(c.Context(), "Session connected", "session_id", sessionID)

	return c.Status(fiber.StatusCreated).JSON(ConnectResponse{
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	})
}

func (h *APIHandlers) PostMessage(c fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return badRequest(c, "Session ID is invalid")
	}

	var req MessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.engine.ProcessTurn(c.Context(), sessionID, req.Text)

	return c.JSON(result)
}

func (h *APIHandlers) GetWorkflowState(c fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return badRequest(c, "Session ID is invalid")
	}

	state, err := h.engine.GetWorkflowState(c.Context(), sessionID)
	if err != nil {
		return h.engineError(c, err, "No active workflow for session")
	}

	return c.JSON(TransformStateResponse(state))
}

func (h *APIHandlers) ClearWorkflowState(c fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return badRequest(c, "Session ID is invalid")
	}

	cleared, err := h.engine.ClearWorkflowState(c.Context(), sessionID)
	if err != nil {
		return h.engineError(c, err, "No active workflow for session")
	}

	return c.JSON(ClearResponse{SessionID: sessionID, Cleared: cleared})
}

func (h *APIHandlers) GetInterruption(c fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return badRequest(c, "Session ID is invalid")
	}

	record, err := h.engine.GetPendingInterruption(c.Context(), sessionID)
	if err != nil {
		return h.engineError(c, err, "No pending interruption for session")
	}

	return c.JSON(record)
}

func (h *APIHandlers) AcknowledgeInterruption(c fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return badRequest(c, "Session ID is invalid")
	}

	acknowledged, err := h.engine.AcknowledgeInterruption(c.Context(), sessionID)
	if err != nil {
		return h.engineError(c, err, "No pending interruption for session")
	}

	if !acknowledged {
		return notFound(c, "No pending interruption for session")
	}

	return c.JSON(AcknowledgeResponse{SessionID: sessionID, Acknowledged: true})
}

func (h *APIHandlers) ListSessions(c fiber.Ctx) error {
	sessions, err := h.engine.ListActiveSessions(c.Context())
	if err != nil {
		return h.engineError(c, err, "No sessions")
	}

	return c.JSON(SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (h *APIHandlers) ListWorkflowTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"workflow_types": h.workflows.Types()})
}

func (h *APIHandlers) Stats(c fiber.Ctx) error {
	sessions, err := h.engine.ListActiveSessions(c.Context())
	if err != nil {
		return h.engineError(c, err, "No sessions")
	}

	return c.JSON(StatsResponse{
		ActiveWorkflows: len(sessions),
		WorkflowTypes:   h.workflows.Types(),
		StartedAt:       h.startedAt,
		UptimeSeconds:   int64(time.Since(h.startedAt).Seconds()),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeCheck, storeOk := h.engine.HealthCheck(c.Context())

	status := "unhealthy"
	message := "SafeHands API is unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if storeOk {
		status = "healthy"
		message = "SafeHands API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports whether the store answers; used as the readiness probe.
func (h *APIHandlers) Ready(c fiber.Ctx) bool {
	_, ok := h.engine.HealthCheck(c.Context())

	return ok
}

func (h *APIHandlers) sessionID(c fiber.Ctx) (string, error) {
	id := c.Params("id")

	if err := h.validator.Var(id, "required,max=128,printascii"); err != nil {
		return "", err
	}

	return id, nil
}

func (h *APIHandlers) engineError(c fiber.Ctx, err error, notFoundDetail string) error {
	h.logger.DebugContext(c.Context(), "Request failed", "path", c.Path(), "error", err)

	return handleEngineError(c, err, notFoundDetail)
}
