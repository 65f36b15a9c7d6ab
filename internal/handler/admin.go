package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/josh-kwaku/eventledger/internal/logging"
	"github.com/josh-kwaku/eventledger/internal/projection"
)

type rebuilder interface {
	Rebuild(ctx context.Context, accountID string) error
	RebuildAll(ctx context.Context) (projection.RebuildReport, error)
}

type AdminHandler struct {
	rebuilder rebuilder
}

func NewAdminHandler(r rebuilder) *AdminHandler {
	return &AdminHandler{rebuilder: r}
}

type rebuildRequest struct {
	AccountID string `json:"account_id"`
}

// RebuildProjections replays one account when account_id is given,
// otherwise every stream in the store.
func (h *AdminHandler) RebuildProjections(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	log := logging.FromContext(r.Context())

	if req.AccountID != "" {
		if err := h.rebuilder.Rebuild(r.Context(), req.AccountID); err != nil {
			RespondDomainError(w, r, err)
			return
		}
		log.Info("projections rebuilt", "account_id", req.AccountID)
		RespondSuccess(w, http.StatusOK, projection.RebuildReport{Rebuilt: 1})
		return
	}

	report, err := h.rebuilder.RebuildAll(r.Context())
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	log.Info("projections rebuilt", "rebuilt", report.Rebuilt, "skipped", len(report.Skipped))
	RespondSuccess(w, http.StatusOK, report)
}
