package report

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sqeprep/internal/app/apiresp"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Export streams the candidate's history and remediation queue as an xlsx
// attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	candidateID := strings.TrimSpace(chi.URLParam(r, "candidateID"))
	if candidateID == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "candidate id is required")
		return
	}

	data, err := h.svc.ExportCandidateWorkbook(r.Context(), candidateID)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", candidateID+"-progress.xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
