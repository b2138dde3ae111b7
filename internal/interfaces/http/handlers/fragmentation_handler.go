package handlers

import (
	"context"
	"net/http"
	"time"

	appFrag "github.com/turtacn/MolFrag/internal/application/fragmentation"
	"github.com/turtacn/MolFrag/internal/domain/molecule"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// FragmentationHandler exposes the fragmentation service over HTTP.
type FragmentationHandler struct {
	svc     appFrag.Service
	logger  logging.Logger
	timeout time.Duration
	maxBody int64
}

// NewFragmentationHandler creates the handler.  timeout bounds the engine
// work of one request; a fragmentation that hits it returns the records
// computed so far with cancelled set.  maxBody bounds the request body.
func NewFragmentationHandler(svc appFrag.Service, logger logging.Logger, timeout time.Duration, maxBody int64) *FragmentationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FragmentationHandler{svc: svc, logger: logger.Named("handler"), timeout: timeout, maxBody: maxBody}
}

func (h *FragmentationHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(r.Context(), h.timeout)
	}
	return context.WithCancel(r.Context())
}

func (h *FragmentationHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := decodeJSON(r, dst); err != nil {
		writeAppError(w, err)
		return false
	}
	return true
}

// Fragment handles POST /api/v1/fragmentations.
func (h *FragmentationHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	var req fragment.FragmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	resp, err := h.svc.Fragment(ctx, &req)
	if err != nil {
		h.logger.Debug("fragmentation rejected", logging.String("smiles", req.SMILES), logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// FragmentBatch handles POST /api/v1/fragmentations/batch.
func (h *FragmentationHandler) FragmentBatch(w http.ResponseWriter, r *http.Request) {
	var req fragment.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	resp, err := h.svc.FragmentBatch(ctx, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// MaximumCuts handles POST /api/v1/max-cuts.
func (h *FragmentationHandler) MaximumCuts(w http.ResponseWriter, r *http.Request) {
	var req fragment.MaxCutsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	resp, err := h.svc.MaximumCuts(ctx, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Combinations handles POST /api/v1/combinations.
func (h *FragmentationHandler) Combinations(w http.ResponseWriter, r *http.Request) {
	var req fragment.CombinationsRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r)
	defer cancel()

	resp, err := h.svc.EnumerateCombinations(ctx, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BondPatterns handles GET /api/v1/bond-patterns.
func (h *FragmentationHandler) BondPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"bond_patterns": molecule.BondPatterns()})
}

//Personal.AI order the ending
