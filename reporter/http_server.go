// This is the http surface of the bridge.
// It exposes the orchestrator, estimator, verifier and ledger
// on the routes below.

package reporter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stellargate-io/bridge-go/bridge"
	"github.com/stellargate-io/bridge-go/chains"
	"github.com/stellargate-io/bridge-go/ledger"
)

const (
	ROUTE_INITIATE = "/api/bridge/initiate"
	ROUTE_STATUS   = "/api/bridge/status/:bridgeId"
	ROUTE_ESTIMATE = "/api/bridge/estimate"
	ROUTE_VALIDATE = "/api/bridge/validate/:bridgeId"
	ROUTE_HISTORY  = "/api/bridge/history/:userAddress"
	ROUTE_CHAINS   = "/api/bridge/chains"
	ROUTE_STATE    = "/api/bridge/state"
)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream collaborators
	orch      *bridge.Orchestrator
	estimator *bridge.Estimator
	verifier  *bridge.Verifier
	records   *ledger.Ledger
	reg       *chains.Registry
	identity  Identity
}

func NewHttpReporter(
	serverIP string,
	serverPort string,
	orch *bridge.Orchestrator,
	estimator *bridge.Estimator,
	verifier *bridge.Verifier,
	records *ledger.Ledger,
	reg *chains.Registry,
	identity Identity,
) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		orch:       orch,
		estimator:  estimator,
		verifier:   verifier,
		records:    records,
		reg:        reg,
		identity:   identity,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Public routes
	router.GET(ROUTE_CHAINS, h.Chains)
	router.GET(ROUTE_STATE, h.State)

	// Caller-scoped routes
	authed := router.Group("/", RequireIdentity(h.identity))
	authed.POST(ROUTE_INITIATE, h.Initiate)
	authed.GET(ROUTE_STATUS, h.Status)
	authed.POST(ROUTE_ESTIMATE, h.Estimate)
	authed.GET(ROUTE_VALIDATE, h.Validate)
	authed.GET(ROUTE_HISTORY, h.History)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

func (h *HttpReporter) Initiate(c *gin.Context) {
	var req bridge.BridgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.orch.Initiate(c.Request.Context(), &req, CallerUserID(c))
	if err != nil {
		if errors.Is(err, bridge.ErrInvalidRoute) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.recordView(rec))
}

func (h *HttpReporter) Status(c *gin.Context) {
	rec, err := h.orch.GetStatus(c.Request.Context(), c.Param("bridgeId"), CallerUserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bridge not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.recordView(rec))
}

type estimateRequest struct {
	FromChain chains.ChainID `json:"fromChain"`
	ToChain   chains.ChainID `json:"toChain"`
	Amount    string         `json:"amount"`
	Token     chains.Token   `json:"token"`
}

func (h *HttpReporter) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.estimator.Estimate(req.FromChain, req.ToChain, req.Amount, req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *HttpReporter) Validate(c *gin.Context) {
	res, err := h.verifier.Verify(c.Request.Context(), c.Param("bridgeId"), CallerUserID(c))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bridge not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *HttpReporter) History(c *gin.Context) {
	recs, err := h.records.ListByAddress(CallerUserID(c), c.Param("userAddress"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		views = append(views, h.recordView(rec))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *HttpReporter) Chains(c *gin.Context) {
	params := h.reg.Params()

	chainViews := []gin.H{}
	for _, cfg := range h.reg.SupportedChains() {
		tokens := []chains.Token{}
		for _, tc := range h.reg.SupportedTokensFor(cfg.ID) {
			tokens = append(tokens, tc.Symbol)
		}
		chainViews = append(chainViews, gin.H{
			"id":          cfg.ID,
			"name":        cfg.Name,
			"family":      cfg.Family,
			"nativeAsset": cfg.NativeAsset,
			"explorerUrl": cfg.ExplorerURL,
			"tokens":      tokens,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"chains":    chainViews,
		"minAmount": params.MinAmount.String(),
		"maxAmount": params.MaxAmount.String(),
	})
}

func (h *HttpReporter) State(c *gin.Context) {
	counts, err := h.records.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"counts": counts,
	})
}

// recordView renders a record with explorer links for executed legs.
func (h *HttpReporter) recordView(rec *ledger.BridgeRecord) gin.H {
	view := gin.H{"record": ledger.NewJSONBridgeRecord(rec)}
	if rec.LockTxRef != "" {
		view["lockTxUrl"] = h.explorerTxURL(rec.FromChain, rec.LockTxRef)
	}
	if rec.ReleaseTxRef != "" {
		view["releaseTxUrl"] = h.explorerTxURL(rec.ToChain, rec.ReleaseTxRef)
	}
	return view
}

func (h *HttpReporter) explorerTxURL(chain, txRef string) string {
	cfg, ok := h.reg.Chain(chains.ChainID(chain))
	if !ok || cfg.ExplorerURL == "" {
		return ""
	}
	return cfg.ExplorerURL + "/tx/" + txRef
}
