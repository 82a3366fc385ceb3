package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sewernet/internal/codec"
	"sewernet/internal/domain"
	"sewernet/internal/loader"
	"sewernet/internal/repository"
	"sewernet/internal/service"
)

// MaxDocumentSize limits imported documents
const MaxDocumentSize = 32 << 20

// NetworkHandler handles network API requests
type NetworkHandler struct {
	svc    *service.NetworkService
	logger *slog.Logger
}

// NewNetworkHandler creates a new network handler
func NewNetworkHandler(svc *service.NetworkService, logger *slog.Logger) *NetworkHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NetworkHandler{svc: svc, logger: logger}
}

// Register adds the API routes to mux
func (h *NetworkHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/network", h.GetNetwork)
	mux.HandleFunc("GET /api/network/document", h.GetDocument)
	mux.HandleFunc("GET /api/outlets", h.ListOutlets)
	mux.HandleFunc("POST /api/outlets/promote", h.PromoteOutlets)
	mux.HandleFunc("GET /api/validation", h.Validate)

	mux.HandleFunc("POST /api/import/{format}", h.Import)
	mux.HandleFunc("GET /api/export/{format}", h.Export)

	mux.HandleFunc("GET /api/networks", h.ListNetworks)
	mux.HandleFunc("POST /api/networks", h.SaveNetwork)
	mux.HandleFunc("POST /api/networks/{name}/restore", h.RestoreNetwork)
	mux.HandleFunc("DELETE /api/networks/{name}", h.DeleteNetwork)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetNetwork returns a summary of the loaded network
func (h *NetworkHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary()
	if err != nil {
		h.fail(w, "Failed to get network", err)
		return
	}
	h.writeJSON(w, summary, http.StatusOK)
}

// GetDocument returns the loaded network as a document
func (h *NetworkHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Snapshot()
	if err != nil {
		h.fail(w, "Failed to get network", err)
		return
	}
	h.writeJSON(w, doc, http.StatusOK)
}

// ListOutlets returns existing outlets and outlet candidates
func (h *NetworkHandler) ListOutlets(w http.ResponseWriter, r *http.Request) {
	outlets, err := h.svc.Outlets()
	if err != nil {
		h.fail(w, "Failed to list outlets", err)
		return
	}
	if outlets == nil {
		outlets = []service.OutletReport{}
	}
	h.writeJSON(w, outlets, http.StatusOK)
}

// PromoteOutlets converts all outlet candidates
func (h *NetworkHandler) PromoteOutlets(w http.ResponseWriter, r *http.Request) {
	promoted, err := h.svc.PromoteOutlets()
	if err != nil {
		h.fail(w, "Failed to promote outlets", err)
		return
	}
	h.writeJSON(w, promoted, http.StatusOK)
}

// Validate returns the validation issues of the loaded network
func (h *NetworkHandler) Validate(w http.ResponseWriter, r *http.Request) {
	issues, err := h.svc.Validate()
	if err != nil {
		h.fail(w, "Failed to validate network", err)
		return
	}
	resp := struct {
		Valid  bool        `json:"valid"`
		Issues interface{} `json:"issues"`
	}{Valid: true, Issues: issues}
	for _, is := range issues {
		if is.Severity == domain.SeverityError {
			resp.Valid = false
		}
	}
	if issues == nil {
		resp.Issues = []struct{}{}
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// Import replaces the loaded network with the document in the request body
func (h *NetworkHandler) Import(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := codec.Decode(c, http.MaxBytesReader(w, r.Body, MaxDocumentSize))
	if err != nil {
		h.writeError(w, "Invalid document", err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.svc.Load(doc)
	if err != nil {
		h.fail(w, "Failed to load network", err)
		return
	}
	h.writeJSON(w, result, http.StatusCreated)
}

// Export writes the loaded network in the requested format
func (h *NetworkHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.PathValue("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := h.svc.Snapshot()
	if err != nil {
		h.fail(w, "Failed to export network", err)
		return
	}

	ext := c.Format()
	contentType := "application/json"
	if ext == "yaml" {
		contentType = "application/x-yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+doc.Name+"."+ext)
	if err := c.Export(doc, w); err != nil {
		// headers are already written
		h.logger.Error("failed to export network", "format", ext, "error", err)
	}
}

// ListNetworks returns the stored networks
func (h *NetworkHandler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, "Failed to list networks", err)
		return
	}
	if list == nil {
		list = []repository.NetworkSummary{}
	}
	h.writeJSON(w, list, http.StatusOK)
}

// SaveNetwork stores the loaded network
func (h *NetworkHandler) SaveNetwork(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Save(r.Context()); err != nil {
		h.fail(w, "Failed to save network", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreNetwork loads a stored network
func (h *NetworkHandler) RestoreNetwork(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Restore(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, "Failed to restore network", err)
		return
	}
	h.writeJSON(w, result, http.StatusOK)
}

// DeleteNetwork removes a stored network
func (h *NetworkHandler) DeleteNetwork(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("name")); err != nil {
		h.fail(w, "Failed to delete network", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoNetwork), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoRepository):
		return http.StatusServiceUnavailable
	case errors.Is(err, codec.ErrInvalidDocument),
		errors.Is(err, domain.ErrUnknownCompartment),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, loader.ErrUnknownNode),
		errors.Is(err, loader.ErrUnknownProfile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *NetworkHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *NetworkHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *NetworkHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
