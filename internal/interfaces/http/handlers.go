package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/engine"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
	"github.com/jinkaiteo/edms-sub019/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine  engine.Engine
	sweeper SweepRunner
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(eng engine.Engine, sweeper SweepRunner, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine:  eng,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateDocumentRequest starts a lifecycle instance. ParentInstanceID spawns
// a new version of an effective document.
type CreateDocumentRequest struct {
	DocumentID       string `json:"document_id" binding:"required"`
	ParentInstanceID *int64 `json:"parent_instance_id,omitempty"`
}

// TransitionRequest carries one attempted state transition
type TransitionRequest struct {
	Target          string `json:"target" binding:"required"`
	Actor           string `json:"actor" binding:"required"`
	ExpectedVersion int64  `json:"expected_version"`

	Comment          string     `json:"comment,omitempty"`
	Reviewer         string     `json:"reviewer,omitempty"`
	EffectiveDate    *time.Time `json:"effective_date,omitempty"`
	ObsolescenceDate *time.Time `json:"obsolescence_date,omitempty"`
	Label            string     `json:"label,omitempty"`
	ChangeReason     string     `json:"change_reason,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateDocument handles POST /api/v1/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := utils.ValidateDocumentID(req.DocumentID); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	instance, err := h.engine.CreateInstance(c.Request.Context(), req.DocumentID, req.ParentInstanceID)
	if err != nil {
		h.logger.Error("Failed to create instance",
			zap.String("document_id", req.DocumentID),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: instance})
}

// GetDocumentState handles GET /api/v1/documents/:documentID/state
func (h *Handlers) GetDocumentState(c *gin.Context) {
	documentID := c.Param("documentID")

	state, err := h.engine.GetCurrentState(c.Request.Context(), documentID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: state})
}

// AttemptTransition handles POST /api/v1/instances/:id/transitions
func (h *Handlers) AttemptTransition(c *gin.Context) {
	id, ok := h.instanceID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	target := lifecycle.State(req.Target)
	if !target.IsValid() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown target state: " + req.Target})
		return
	}

	payload := lifecycle.Payload{
		Comment:          utils.SanitizeString(req.Comment),
		Reviewer:         req.Reviewer,
		EffectiveDate:    req.EffectiveDate,
		ObsolescenceDate: req.ObsolescenceDate,
		Label:            lifecycle.Label(req.Label),
		ChangeReason:     utils.SanitizeString(req.ChangeReason),
	}

	result, err := h.engine.AttemptTransition(c.Request.Context(), id, target, req.Actor, payload, req.ExpectedVersion)
	if err != nil {
		h.logger.Info("Transition rejected",
			zap.Int64("instance_id", id),
			zap.String("target", req.Target),
			zap.String("actor", req.Actor),
			zap.Error(err))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListTransitions handles GET /api/v1/instances/:id/transitions
func (h *Handlers) ListTransitions(c *gin.Context) {
	id, ok := h.instanceID(c)
	if !ok {
		return
	}

	records, err := h.engine.ListTransitions(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// RunSweep handles POST /api/v1/sweep, triggering one on-demand scheduler pass
func (h *Handlers) RunSweep(c *gin.Context) {
	if h.sweeper == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "scheduler sweep is not enabled"})
		return
	}

	report := h.sweeper.RunSweep(c.Request.Context(), time.Now())
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

func (h *Handlers) instanceID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid instance ID"})
		return 0, false
	}
	return id, true
}

// writeError maps domain sentinel errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, lifecycle.ErrMissingRequiredField):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
