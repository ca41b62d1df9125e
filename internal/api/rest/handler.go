package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/api/rest/dto"
	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/store"
)

// ScanTrigger starts a background scan pass unless one is running
type ScanTrigger interface {
	Trigger()
}

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// ListTokens returns a page of tokens, newest first, and triggers a scan
	// GET /api/tokens?offset=<offset>&limit=<limit>&searchQuery=<symbol substring>
	ListTokens(c *gin.Context)

	// GetToken returns a single token by contract address
	// GET /api/tokens/:address
	GetToken(c *gin.Context)

	// LatestScanRun returns the coverage record of the most recent pass on a chain
	// GET /api/scans/latest?chain=<caip-2 id>
	LatestScanRun(c *gin.Context)

	// HealthCheck reports whether the database answers
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store   store.Store
	trigger ScanTrigger
}

// NewHandler creates a new REST API handler. trigger may be nil when the
// process does not scan.
func NewHandler(st store.Store, trigger ScanTrigger) Handler {
	return &handler{
		store:   st,
		trigger: trigger,
	}
}

func (h *handler) ListTokens(c *gin.Context) {
	// a query arrival is a hint that someone wants fresh data
	if h.trigger != nil {
		h.trigger.Trigger()
	}

	params, err := ParseListTokensQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	tokens, err := h.store.ListTokens(c.Request.Context(), params.Filter())
	if err != nil {
		respondInternalError(c, err, zap.Int("offset", params.Offset), zap.Int("limit", params.Limit))
		return
	}

	c.JSON(http.StatusOK, dto.MapTokensToDTO(tokens))
}

func (h *handler) GetToken(c *gin.Context) {
	address, err := domain.ValidateAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid contract address", err.Error())
		return
	}

	token, err := h.store.GetToken(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, zap.String("address", address))
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenToDTO(token))
}

func (h *handler) LatestScanRun(c *gin.Context) {
	chain := domain.Chain(c.DefaultQuery("chain", string(domain.ChainBaseMainnet)))
	if !domain.IsValidChain(chain) {
		respondBadRequest(c, "Invalid chain", string(chain))
		return
	}

	run, err := h.store.LatestScanRun(c.Request.Context(), string(chain))
	if err != nil {
		respondInternalError(c, err, zap.String("chain", string(chain)))
		return
	}
	if run == nil {
		respondNotFound(c, "No scan run recorded")
		return
	}

	c.JSON(http.StatusOK, dto.MapScanRunToDTO(run))
}

func (h *handler) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		respondServiceUnavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
