package assistant

import (
	"encoding/json"
	"net/http"
	"strings"

	"sqeprep/internal/app/apiresp"
	"sqeprep/internal/policy"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type replyRequest struct {
	Plan  string `json:"plan"`
	Query string `json:"query"`
}

// Reply answers a study question. The AI assistant is a plan capability, so
// the request carries the candidate's plan and is refused with a distinct
// status when the plan does not include it.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "query is required")
		return
	}
	if err := policy.RequireCapability(req.Plan, policy.CapabilityAIAssistant); err != nil {
		apiresp.WriteError(w, r, http.StatusForbidden, err.Error())
		return
	}

	result, err := h.svc.Generate(r.Context(), req.Query)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	apiresp.WriteOK(w, r, http.StatusOK, map[string]any{
		"reply":  result.Reply,
		"source": result.Source,
	})
}
