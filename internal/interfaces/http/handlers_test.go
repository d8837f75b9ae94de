package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/engine"
	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
	"github.com/jinkaiteo/edms-sub019/internal/worker"
)

// stubEngine implements engine.Engine with overridable func fields
type stubEngine struct {
	createFn     func(ctx context.Context, documentID string, parentInstanceID *int64) (*entity.WorkflowInstance, error)
	transitionFn func(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*engine.TransitionResult, error)
	stateFn      func(ctx context.Context, documentID string) (*engine.DocumentState, error)
	listFn       func(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error)
}

func (s *stubEngine) CreateInstance(ctx context.Context, documentID string, parentInstanceID *int64) (*entity.WorkflowInstance, error) {
	return s.createFn(ctx, documentID, parentInstanceID)
}

func (s *stubEngine) AttemptTransition(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*engine.TransitionResult, error) {
	return s.transitionFn(ctx, instanceID, target, actor, payload, expectedVersion)
}

func (s *stubEngine) GetCurrentState(ctx context.Context, documentID string) (*engine.DocumentState, error) {
	return s.stateFn(ctx, documentID)
}

func (s *stubEngine) ListTransitions(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error) {
	return s.listFn(ctx, instanceID)
}

type stubSweeper struct {
	report *worker.SweepReport
}

func (s *stubSweeper) RunSweep(ctx context.Context, now time.Time) *worker.SweepReport {
	return s.report
}

func newTestServer(eng engine.Engine, sweeper SweepRunner) *Server {
	return NewServer(DefaultServerConfig(), eng, sweeper, zap.NewNop())
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestCreateDocument(t *testing.T) {
	eng := &stubEngine{
		createFn: func(ctx context.Context, documentID string, parentInstanceID *int64) (*entity.WorkflowInstance, error) {
			return &entity.WorkflowInstance{ID: 1, DocumentID: documentID, State: lifecycle.StateDraft}, nil
		},
	}
	srv := newTestServer(eng, nil)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/documents",
		CreateDocumentRequest{DocumentID: "SOP-001"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
}

func TestCreateDocument_RejectsBadID(t *testing.T) {
	srv := newTestServer(&stubEngine{}, nil)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/documents",
		CreateDocumentRequest{DocumentID: "../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestAttemptTransition_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", lifecycle.ErrNotFound, http.StatusNotFound},
		{"unauthorized", fmt.Errorf("%w: actor bob lacks reviewer", lifecycle.ErrUnauthorized), http.StatusForbidden},
		{"invalid transition", fmt.Errorf("%w: DRAFT -> EFFECTIVE", lifecycle.ErrInvalidTransition), http.StatusConflict},
		{"stale version", lifecycle.ErrConcurrentModification, http.StatusConflict},
		{"missing field", fmt.Errorf("%w: rejection requires a comment", lifecycle.ErrMissingRequiredField), http.StatusUnprocessableEntity},
		{"storage failure", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &stubEngine{
				transitionFn: func(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*engine.TransitionResult, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(eng, nil)

			rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/instances/1/transitions",
				TransitionRequest{Target: "PENDING_REVIEW", Actor: "alice"})
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAttemptTransition_InternalErrorIsOpaque(t *testing.T) {
	eng := &stubEngine{
		transitionFn: func(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*engine.TransitionResult, error) {
			return nil, fmt.Errorf("dsn=secret connection refused")
		},
	}
	srv := newTestServer(eng, nil)

	_, resp := doJSON(t, srv, http.MethodPost, "/api/v1/instances/1/transitions",
		TransitionRequest{Target: "PENDING_REVIEW", Actor: "alice"})
	assert.Equal(t, "internal error", resp.Error)
}

func TestAttemptTransition_Success(t *testing.T) {
	var gotPayload lifecycle.Payload
	var gotVersion int64
	eng := &stubEngine{
		transitionFn: func(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*engine.TransitionResult, error) {
			gotPayload = payload
			gotVersion = expectedVersion
			return &engine.TransitionResult{State: target, Version: expectedVersion + 1}, nil
		},
	}
	srv := newTestServer(eng, nil)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/instances/7/transitions", TransitionRequest{
		Target:          "PENDING_REVIEW",
		Actor:           "alice",
		ExpectedVersion: 3,
		Reviewer:        "rita",
		Comment:         "ready\x00 for review",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.EqualValues(t, 3, gotVersion)
	assert.Equal(t, "rita", gotPayload.Reviewer)
	assert.Equal(t, "ready for review", gotPayload.Comment, "control characters stripped")
}

func TestAttemptTransition_UnknownTargetState(t *testing.T) {
	srv := newTestServer(&stubEngine{}, nil)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/instances/1/transitions",
		TransitionRequest{Target: "LIMBO", Actor: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttemptTransition_BadInstanceID(t *testing.T) {
	srv := newTestServer(&stubEngine{}, nil)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/instances/abc/transitions",
		TransitionRequest{Target: "PENDING_REVIEW", Actor: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDocumentState(t *testing.T) {
	eng := &stubEngine{
		stateFn: func(ctx context.Context, documentID string) (*engine.DocumentState, error) {
			if documentID != "SOP-001" {
				return nil, lifecycle.ErrNotFound
			}
			return &engine.DocumentState{DocumentID: documentID, State: lifecycle.StateEffective, Version: 9}, nil
		},
	}
	srv := newTestServer(eng, nil)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/documents/SOP-001/state", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/v1/documents/UNKNOWN/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransitions(t *testing.T) {
	eng := &stubEngine{
		listFn: func(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error) {
			return []*entity.TransitionRecord{
				{InstanceID: instanceID, Seq: 1, FromState: lifecycle.StateDraft, ToState: lifecycle.StatePendingReview, Actor: "alice"},
			}, nil
		},
	}
	srv := newTestServer(eng, nil)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/v1/instances/1/transitions", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestRunSweep(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubSweeper{report: &worker.SweepReport{Scanned: 3, Activated: 1}})

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/v1/sweep", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestRunSweep_DisabledWithoutSweeper(t *testing.T) {
	srv := newTestServer(&stubEngine{}, nil)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/sweep", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&stubEngine{}, nil)

	rec, resp := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}
