// Package workflow runs the guided workflow state machine for each conversation session.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/safehands/guide/pkg/catalog"
	"github.com/safehands/guide/pkg/classifier"
	"github.com/safehands/guide/pkg/eventbus"
	"github.com/safehands/guide/pkg/events"
	"github.com/safehands/guide/pkg/generation"
	"github.com/safehands/guide/pkg/interruption"
	"github.com/safehands/guide/pkg/metrics"
	"github.com/safehands/guide/pkg/models"
	"github.com/safehands/guide/pkg/otelhelper"
	"github.com/safehands/guide/pkg/persistence"
	"github.com/safehands/guide/pkg/template"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrMissingDependency = errors.New("missing engine dependency")

type Config struct {
	Store                 persistence.Store
	WorkflowNamespace     persistence.Namespace
	InterruptionNamespace persistence.Namespace
	Catalog               *catalog.Catalog
	// Classifier defaults to a keyword classifier over the catalog's trigger phrases.
	Classifier          classifier.Classifier
	Generator           generation.Generator
	GenerationTimeout   time.Duration
	Templates           *template.Set
	DefaultWorkflowType string
	Publisher           eventbus.EventPublisher
	Recorder            metrics.Recorder
	Tracer              trace.Tracer
	Logger              *slog.Logger
	Clock               func() time.Time
}

// Engine owns the transition table. It is safe for concurrent use; turns for
// the same session are serialized and turns for different sessions never wait
// on each other.
type Engine struct {
	states              *Repository
	interruptions       *interruption.Protocol
	catalog             *catalog.Catalog
	classifier          classifier.Classifier
	generator           generation.Generator
	templates           *template.Set
	defaultWorkflowType string
	publisher           eventbus.EventPublisher
	recorder            metrics.Recorder
	tracer              trace.Tracer
	logger              *slog.Logger
	clock               func() time.Time
	locks               *sessionLocks
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	}

	if cfg.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog", ErrMissingDependency)
	}

	if cfg.WorkflowNamespace.Prefix == "" {
		cfg.WorkflowNamespace.Prefix = persistence.WorkflowNamespace.Prefix
	}

	if cfg.WorkflowNamespace.TTL <= 0 {
		cfg.WorkflowNamespace.TTL = persistence.WorkflowNamespace.TTL
	}

	if cfg.Classifier == nil {
		cfg.Classifier = classifier.NewKeyword(cfg.Catalog)
	}

	if cfg.Generator == nil {
		cfg.Generator = generation.Disabled{}
	}

	if cfg.Templates == nil {
		cfg.Templates = template.Default()
	}

	if cfg.DefaultWorkflowType == "" {
		cfg.DefaultWorkflowType = catalog.FoodOrderWorkflow
	}

	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Noop{}
	}

	if cfg.Tracer == nil {
		cfg.Tracer = otelhelper.NoopTracer()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		states: NewRepository(cfg.Store, cfg.WorkflowNamespace),
		interruptions: interruption.NewProtocol(interruption.Config{
			Store:     cfg.Store,
			Namespace: cfg.InterruptionNamespace,
			Publisher: cfg.Publisher,
			Recorder:  cfg.Recorder,
			Logger:    cfg.Logger,
		}),
		catalog:             cfg.Catalog,
		classifier:          cfg.Classifier,
		generator:           generation.WithTimeout(cfg.Generator, cfg.GenerationTimeout),
		templates:           cfg.Templates,
		defaultWorkflowType: cfg.DefaultWorkflowType,
		publisher:           cfg.Publisher,
		recorder:            cfg.Recorder,
		tracer:              cfg.Tracer,
		logger:              cfg.Logger.With("module", "workflow_engine"),
		clock:               cfg.Clock,
		locks:               newSessionLocks(),
	}, nil
}

// ProcessTurn classifies userText against the session's state and applies one
// transition. It never returns an error: faults yield an apology with
// ResponseKindError.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, userText string) (result models.TurnResult) {
	start := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.process_turn",
		attribute.String(otelhelper.SessionIDKey, sessionID),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing turn: %v", r)
			otelhelper.SetError(span, err)
			e.logger.ErrorContext(ctx, "Recovered from panic", "session_id", sessionID, "error", err)
			result = e.apology(sessionID)
		}

		span.SetAttributes(
			attribute.String(otelhelper.ClassificationKey, result.Classification),
			attribute.String(otelhelper.ResponseKindKey, string(result.ResponseKind)),
		)
		e.recorder.ObserveTurn(result.Classification, string(result.ResponseKind), time.Since(start))
	}()

	result, err := e.processTurn(ctx, sessionID, userText)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.SessionIDKey, sessionID))
		e.logger.ErrorContext(ctx, "Failed to process turn", "session_id", sessionID, "error", err)

		return e.apology(sessionID)
	}

	return result
}

func (e *Engine) processTurn(ctx context.Context, sessionID, userText string) (models.TurnResult, error) {
	unlock, err := e.locks.Lock(ctx, sessionID)
	if err != nil {
		return models.TurnResult{}, fmt.Errorf("waiting for session lock: %w", err)
	}
	defer unlock()

	// Writes must land whole even if the caller goes away mid-turn.
	writeCtx := context.WithoutCancel(ctx)

	state, err := e.loadForTurn(ctx, writeCtx, sessionID)
	if err != nil {
		return models.TurnResult{}, err
	}

	input := classifier.Input{Text: userText}

	if state != nil {
		step := state.CurrentStep()
		input.CurrentStep = &step
	}

	classification := e.classifier.Classify(input)

	e.logger.DebugContext(ctx, "Classified turn",
		"session_id", sessionID,
		"classification", classification.Category,
		"active", state != nil)

	if state == nil {
		if classification.Category == classifier.CategoryNewTask {
			return e.start(writeCtx, sessionID, classification, userText, false)
		}

		return e.render(sessionID, classification.Category, template.Guidance, e.taskData(e.defaultWorkflowType), nil, 0)
	}

	switch classification.Category {
	case classifier.CategoryConfirmation:
		return e.confirm(writeCtx, state, classification.Category)
	case classifier.CategoryNewTask:
		return e.start(writeCtx, sessionID, classification, userText, true)
	case classifier.CategoryDigression:
		return e.digress(ctx, writeCtx, state, userText, classification.Category)
	default:
		return e.render(sessionID, classification.Category, template.Unrecognized,
			e.stepData(state), stepIndex(state), state.TotalSteps())
	}
}

// loadForTurn returns nil when the session has no usable state. Corrupt
// records are deleted so the session restarts cleanly.
func (e *Engine) loadForTurn(ctx, writeCtx context.Context, sessionID string) (*models.WorkflowState, error) {
	state, err := e.states.Load(ctx, sessionID)

	switch {
	case err == nil:
		return state, nil
	case persistence.IsNotFound(err):
		return nil, nil
	case models.IsInvalidSessionState(err):
		e.logger.WarnContext(ctx, "Discarding invalid workflow state", "session_id", sessionID, "error", err)

		if _, delErr := e.states.Delete(writeCtx, sessionID); delErr != nil {
			return nil, delErr
		}

		return nil, nil
	default:
		return nil, err
	}
}

func (e *Engine) start(
	ctx context.Context,
	sessionID string,
	classification classifier.Result,
	userText string,
	restart bool,
) (models.TurnResult, error) {
	workflowType := classification.WorkflowType
	if workflowType == "" {
		workflowType = e.defaultWorkflowType
	}

	steps, err := e.catalog.Steps(workflowType)
	if err != nil {
		if catalog.IsUnknownWorkflowType(err) {
			e.logger.WarnContext(ctx, "Cannot start unknown workflow type",
				"session_id", sessionID, "workflow_type", workflowType)

			return e.render(sessionID, classification.Category, template.Guidance,
				e.taskData(e.defaultWorkflowType), nil, 0)
		}

		return models.TurnResult{}, err
	}

	state := models.NewWorkflowState(sessionID, workflowType, userText, steps, e.clock())
	if err := e.states.Save(ctx, state); err != nil {
		return models.TurnResult{}, err
	}

	e.recorder.IncWorkflow("started")
	e.logger.InfoContext(ctx, "Workflow started",
		"session_id", sessionID,
		"workflow_type", workflowType,
		"total_steps", state.TotalSteps(),
		"restarted", restart)

	e.publish(ctx, sessionID, events.WorkflowStarted{
		BaseEvent:  events.NewBaseEvent(events.WorkflowStartedEvent, sessionID, workflowType),
		TotalSteps: state.TotalSteps(),
		UserInput:  userText,
		Restarted:  restart,
	})

	return e.render(sessionID, classification.Category, template.Instruction,
		e.stepData(state), stepIndex(state), state.TotalSteps())
}

func (e *Engine) confirm(ctx context.Context, state *models.WorkflowState, category classifier.Category) (models.TurnResult, error) {
	from := state.CurrentStepIndex

	if state.IsLastStep() {
		if _, err := e.states.Delete(ctx, state.SessionID); err != nil {
			return models.TurnResult{}, err
		}

		e.recorder.IncWorkflow("completed")
		e.logger.InfoContext(ctx, "Workflow completed",
			"session_id", state.SessionID,
			"workflow_type", state.WorkflowType)

		e.publish(ctx, state.SessionID, events.WorkflowCompleted{
			BaseEvent:  events.NewBaseEvent(events.WorkflowCompletedEvent, state.SessionID, state.WorkflowType),
			TotalSteps: state.TotalSteps(),
			Duration:   e.clock().Sub(state.StartedAt),
		})

		return e.render(state.SessionID, category, template.Completion, e.taskData(state.WorkflowType), nil, 0)
	}

	state.Advance(e.clock())

	if err := e.states.Save(ctx, state); err != nil {
		return models.TurnResult{}, err
	}

	e.recorder.IncWorkflow("advanced")
	e.logger.InfoContext(ctx, "Workflow advanced",
		"session_id", state.SessionID,
		"from_step", from,
		"to_step", state.CurrentStepIndex)

	e.publish(ctx, state.SessionID, events.WorkflowStepAdvanced{
		BaseEvent:  events.NewBaseEvent(events.WorkflowStepAdvancedEvent, state.SessionID, state.WorkflowType),
		FromStep:   from,
		ToStep:     state.CurrentStepIndex,
		TotalSteps: state.TotalSteps(),
	})

	return e.render(state.SessionID, category, template.Instruction,
		e.stepData(state), stepIndex(state), state.TotalSteps())
}

// digress raises an interruption and answers the question. The workflow state is not touched.
func (e *Engine) digress(
	ctx, writeCtx context.Context,
	state *models.WorkflowState,
	userText string,
	category classifier.Category,
) (models.TurnResult, error) {
	record := models.NewInterruptionRecord(state, userText, e.clock())
	if err := e.interruptions.Raise(writeCtx, record); err != nil {
		return models.TurnResult{}, err
	}

	data := e.stepData(state)
	data.UserText = userText

	answer, err := e.answer(ctx, state, data)
	if err != nil {
		e.logger.WarnContext(ctx, "Falling back to templated answer",
			"session_id", state.SessionID,
			"step_index", state.CurrentStepIndex,
			"timeout", generation.IsTimeout(err),
			"error", err)

		return e.render(state.SessionID, category, template.Fallback, data, stepIndex(state), state.TotalSteps())
	}

	return models.TurnResult{
		SessionID:      state.SessionID,
		ReplyText:      answer,
		ResponseKind:   models.ResponseKindInstruction,
		Classification: string(category),
		StepIndex:      stepIndex(state),
		TotalSteps:     state.TotalSteps(),
	}, nil
}

func (e *Engine) answer(ctx context.Context, state *models.WorkflowState, data template.Data) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.generate_answer",
		attribute.String(otelhelper.SessionIDKey, state.SessionID),
		attribute.Int(otelhelper.StepIndexKey, state.CurrentStepIndex),
	)
	defer span.End()

	prompt, err := e.templates.Render(template.DigressionPrompt, data)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", fmt.Errorf("%w: %w", generation.ErrGenerationFailure, err)
	}

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return answer, nil
}

// GetWorkflowState returns a copy of the session's state, or persistence.ErrNotFound.
func (e *Engine) GetWorkflowState(ctx context.Context, sessionID string) (*models.WorkflowState, error) {
	state, err := e.states.Load(ctx, sessionID)
	if err != nil {
		if models.IsInvalidSessionState(err) {
			return nil, fmt.Errorf("%w: %w", persistence.ErrNotFound, err)
		}

		return nil, err
	}

	return state, nil
}

// ClearWorkflowState removes the session's state and reports whether one existed.
func (e *Engine) ClearWorkflowState(ctx context.Context, sessionID string) (bool, error) {
	unlock, err := e.locks.Lock(ctx, sessionID)
	if err != nil {
		return false, err
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	var (
		workflowType string
		lastStep     int
	)

	if state, err := e.states.Load(ctx, sessionID); err == nil {
		workflowType = state.WorkflowType
		lastStep = state.CurrentStepIndex
	}

	existed, err := e.states.Delete(ctx, sessionID)
	if err != nil {
		return false, err
	}

	if existed {
		e.recorder.IncWorkflow("cleared")
		e.logger.InfoContext(ctx, "Workflow cleared", "session_id", sessionID)
		e.publish(ctx, sessionID, events.WorkflowCleared{
			BaseEvent: events.NewBaseEvent(events.WorkflowClearedEvent, sessionID, workflowType),
			StepIndex: lastStep,
		})
	}

	return existed, nil
}

func (e *Engine) GetPendingInterruption(ctx context.Context, sessionID string) (*models.InterruptionRecord, error) {
	return e.interruptions.Peek(ctx, sessionID)
}

func (e *Engine) AcknowledgeInterruption(ctx context.Context, sessionID string) (bool, error) {
	return e.interruptions.Acknowledge(context.WithoutCancel(ctx), sessionID)
}

func (e *Engine) ListActiveSessions(ctx context.Context) ([]string, error) {
	return e.states.ListSessionIDs(ctx)
}

// CountActiveSessions feeds the periodic active-workflow gauge.
func (e *Engine) CountActiveSessions(ctx context.Context) (int, error) {
	ids, err := e.states.ListSessionIDs(ctx)
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}

func (e *Engine) HealthCheck(ctx context.Context) (string, bool) {
	return e.states.HealthCheck(ctx)
}

func (e *Engine) render(
	sessionID string,
	category classifier.Category,
	kind template.Kind,
	data template.Data,
	index *int,
	total int,
) (models.TurnResult, error) {
	text, err := e.templates.Render(kind, data)
	if err != nil {
		return models.TurnResult{}, err
	}

	return models.TurnResult{
		SessionID:      sessionID,
		ReplyText:      text,
		ResponseKind:   models.ResponseKindInstruction,
		Classification: string(category),
		StepIndex:      index,
		TotalSteps:     total,
	}, nil
}

func (e *Engine) apology(sessionID string) models.TurnResult {
	text, err := e.templates.Render(template.Apology, template.Data{})
	if err != nil {
		text = "I'm sorry, I encountered an error. Please try again."
	}

	return models.TurnResult{
		SessionID:    sessionID,
		ReplyText:    text,
		ResponseKind: models.ResponseKindError,
	}
}

func (e *Engine) taskData(workflowType string) template.Data {
	data := template.Data{TaskName: workflowType}

	if definition, err := e.catalog.Definition(workflowType); err == nil && definition.Name != "" {
		data.TaskName = definition.Name
	}

	return data
}

func (e *Engine) stepData(state *models.WorkflowState) template.Data {
	data := e.taskData(state.WorkflowType)
	data.StepNumber = state.CurrentStepIndex + 1
	data.TotalSteps = state.TotalSteps()
	data.StepText = state.CurrentStep().Text

	data.Steps = make([]string, 0, len(state.Steps))
	for _, step := range state.Steps {
		data.Steps = append(data.Steps, step.Text)
	}

	return data
}

func (e *Engine) publish(ctx context.Context, sessionID string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, sessionID, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"session_id", sessionID, "event_type", event.GetType(), "error", err)
	}
}

func stepIndex(state *models.WorkflowState) *int {
	index := state.CurrentStepIndex

	return &index
}
