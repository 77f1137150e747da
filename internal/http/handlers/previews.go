package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/pkg/fetch"
)

// PreviewReader extracts a preview from free text
type PreviewReader interface {
	FromText(ctx context.Context, text string) (domain.Metadata, error)
}

type PreviewsHandler struct {
	logger *slog.Logger
	reader PreviewReader
}

// PreviewRequest is the body of POST /api/v1/previews
type PreviewRequest struct {
	Text string `json:"text"`
}

func NewPreviewsHandler(logger *slog.Logger, reader PreviewReader) *PreviewsHandler {
	return &PreviewsHandler{
		logger: logger,
		reader: reader,
	}
}

// CreatePreview extracts the preview of the first link in the request text.
// Text without a link yields an empty record.
func (h *PreviewsHandler) CreatePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	preview, err := h.reader.FromText(r.Context(), req.Text)
	if err != nil {
		// Transport details stay in the log
		h.logger.Warn("Preview extraction failed", "error", err)

		status := http.StatusBadGateway
		response := ErrorResponse{Error: "Failed to fetch link"}
		var statusErr *fetch.StatusError
		switch {
		case errors.As(err, &statusErr):
			response.Error = "Link returned " + statusErr.Status
			response.StatusCode = statusErr.StatusCode
		case errors.Is(err, fetch.ErrBlockedAddress):
			status = http.StatusUnprocessableEntity
			response.Error = "Link points to a non-public address"
		}
		writeJSONResponse(w, h.logger, status, response)
		return
	}

	writeJSONResponse(w, h.logger, http.StatusOK, preview)
}
