package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/superio/interview-server-go/internal/audit"
	apperrors "github.com/superio/interview-server-go/internal/errors"
	"github.com/superio/interview-server-go/internal/httputil"
	"github.com/superio/interview-server-go/internal/service"
)

type ConnectionHandler struct {
	credentials *service.CredentialService
}

func NewConnectionHandler(credentials *service.CredentialService) *ConnectionHandler {
	return &ConnectionHandler{credentials: credentials}
}

func (h *ConnectionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/connection-details", h.ConnectionDetails)

	return r
}

type connectionDetailsRequest struct {
	InterviewID string `json:"interviewId"`
	RoomConfig  *struct {
		Agents []struct {
			AgentName string `json:"agent_name"`
		} `json:"agents"`
	} `json:"room_config"`
}

func (req connectionDetailsRequest) agentName() string {
	if req.RoomConfig == nil || len(req.RoomConfig.Agents) == 0 {
		return ""
	}
	return req.RoomConfig.Agents[0].AgentName
}

// POST /api/connection-details
func (h *ConnectionHandler) ConnectionDetails(w http.ResponseWriter, r *http.Request) {
	var req connectionDetailsRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	details, err := h.credentials.Issue(r.Context(), service.ConnectionRequest{
		InterviewID: req.InterviewID,
		AgentName:   req.agentName(),
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeConfiguration) {
			audit.LogFromRequest(r, audit.Event{
				Type:        audit.EventConfigurationFailed,
				InterviewID: req.InterviewID,
			})
		}
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:        audit.EventCredentialIssue,
		InterviewID: req.InterviewID,
		Details: map[string]interface{}{
			"roomName":  details.RoomName,
			"agentName": req.agentName(),
		},
	})

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, details)
}
