package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wolfman30/dental-booking-ai/internal/knowledge"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// KnowledgeRepository stores the clinic knowledge override.
type KnowledgeRepository interface {
	Replace(ctx context.Context, b *knowledge.Base) (int64, error)
	Reset(ctx context.Context) error
	Version(ctx context.Context) (int64, error)
}

// KnowledgeReader returns the document the assistant currently answers from.
type KnowledgeReader interface {
	Current(ctx context.Context) *knowledge.Base
}

// AdminKnowledgeHandler reads and replaces the clinic knowledge document.
type AdminKnowledgeHandler struct {
	repo   KnowledgeRepository
	reader KnowledgeReader
	logger *logging.Logger
}

func NewAdminKnowledgeHandler(repo KnowledgeRepository, reader KnowledgeReader, logger *logging.Logger) *AdminKnowledgeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminKnowledgeHandler{repo: repo, reader: reader, logger: logger}
}

type knowledgeResponse struct {
	Version  int64           `json:"version"`
	Override bool            `json:"override"`
	Document *knowledge.Base `json:"document"`
}

// GetKnowledge returns the active document and its override version.
func (h *AdminKnowledgeHandler) GetKnowledge(w http.ResponseWriter, r *http.Request) {
	version, err := h.repo.Version(r.Context())
	if err != nil {
		h.logger.Warn("failed to read knowledge version", "error", err)
	}
	writeJSON(w, http.StatusOK, knowledgeResponse{
		Version:  version,
		Override: version > 0,
		Document: h.reader.Current(r.Context()),
	})
}

// PutKnowledge replaces the override document.
func (h *AdminKnowledgeHandler) PutKnowledge(w http.ResponseWriter, r *http.Request) {
	var doc knowledge.Base
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := doc.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	version, err := h.repo.Replace(r.Context(), &doc)
	if err != nil {
		h.logger.Error("failed to store knowledge", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("knowledge document replaced", "version", version)
	writeJSON(w, http.StatusOK, knowledgeResponse{Version: version, Override: true, Document: &doc})
}

// DeleteKnowledge drops the override so the built-in document applies.
func (h *AdminKnowledgeHandler) DeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Reset(r.Context()); err != nil {
		h.logger.Error("failed to reset knowledge", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
