package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/superio/interview-server-go/internal/audit"
	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/httputil"
	"github.com/superio/interview-server-go/internal/middleware"
	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/service"
)

type InterviewHandler struct {
	scheduling  *service.SchedulingService
	evaluations *service.EvaluationService
	details     *service.DetailService
	slots       *service.SlotRecommender
}

func NewInterviewHandler(
	scheduling *service.SchedulingService,
	evaluations *service.EvaluationService,
	details *service.DetailService,
	slots *service.SlotRecommender,
) *InterviewHandler {
	return &InterviewHandler{
		scheduling:  scheduling,
		evaluations: evaluations,
		details:     details,
		slots:       slots,
	}
}

// Routes expects the auth middleware to run before it.
func (h *InterviewHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RequireRole(model.RoleCandidate)).Get("/recommended-slots", h.RecommendedSlots)
	r.With(middleware.RequireRole(model.RoleCandidate)).Post("/schedule", h.Schedule)
	r.With(middleware.RequireRole(model.RoleCandidate)).Get("/my-interviews", h.ListInterviews)
	r.With(middleware.RequireRole(model.RoleRecruiter)).Get("/company-interviews", h.ListInterviews)
	r.Get("/llm-info/{id}", h.Detail)
	r.Get("/{id}", h.GetInterview)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/evaluation", h.SubmitEvaluation)
	r.Put("/{id}/evaluation", h.OverrideEvaluation)

	return r
}

// GET /interview/recommended-slots?jobId=
func (h *InterviewHandler) RecommendedSlots(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		httputil.WriteError(w, apperrors.MissingRequired("jobId"))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"slots": h.slots.Recommend(jobID)})
}

// POST /interview/schedule
func (h *InterviewHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var params service.ScheduleParams
	if err := decodeJSON(r, &params); err != nil {
		httputil.WriteError(w, err)
		return
	}

	interview, err := h.scheduling.Schedule(r.Context(), identity, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:        audit.EventInterviewSchedule,
		ActorID:     identity.ID,
		ActorRole:   string(identity.Role),
		InterviewID: interview.ID,
		Details:     map[string]interface{}{"applicationId": params.ApplicationID},
	})

	writeSuccess(w, http.StatusCreated, map[string]any{"interview": interview})
}

// GET /interview/my-interviews
// GET /interview/company-interviews
func (h *InterviewHandler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page := ParsePagination(r)
	interviews, err := h.scheduling.List(r.Context(), identity, page.Limit, page.Offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"interviews": interviews,
		"limit":      page.Limit,
		"offset":     page.Offset,
	})
}

// GET /interview/{id}
func (h *InterviewHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := interviewIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.evaluations.Get(r.Context(), identity, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"interview": record})
}

// POST /interview/{id}/cancel
func (h *InterviewHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := interviewIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	interview, err := h.scheduling.Cancel(r.Context(), identity, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:        audit.EventInterviewCancel,
		ActorID:     identity.ID,
		ActorRole:   string(identity.Role),
		InterviewID: id,
	})

	writeSuccess(w, http.StatusOK, map[string]any{"interview": interview})
}

// GET /interview/llm-info/{id}
func (h *InterviewHandler) Detail(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := interviewIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	detail, err := h.details.Get(r.Context(), identity, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:        audit.EventDetailAccess,
		ActorID:     identity.ID,
		ActorRole:   string(identity.Role),
		InterviewID: id,
		Details:     map[string]interface{}{"delegated": identity.Delegated},
	})

	writeSuccess(w, http.StatusOK, map[string]any{"interviewDetail": detail})
}

type evaluationRequest struct {
	Evaluation json.RawMessage `json:"evaluation"`
}

// POST /interview/{id}/evaluation
func (h *InterviewHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	h.writeEvaluation(w, r, false)
}

// PUT /interview/{id}/evaluation
func (h *InterviewHandler) OverrideEvaluation(w http.ResponseWriter, r *http.Request) {
	h.writeEvaluation(w, r, true)
}

func (h *InterviewHandler) writeEvaluation(w http.ResponseWriter, r *http.Request, override bool) {
	identity, err := identityFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := interviewIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req evaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	eventType := audit.EventEvaluationSubmit
	if override {
		eventType = audit.EventEvaluationOverride
		err = h.evaluations.Override(r.Context(), identity, id, req.Evaluation)
	} else {
		err = h.evaluations.Submit(r.Context(), identity, id, req.Evaluation)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:        eventType,
		ActorID:     identity.ID,
		ActorRole:   string(identity.Role),
		InterviewID: id,
		Details:     map[string]interface{}{"delegated": identity.Delegated},
	})

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Evaluation saved"})
}
