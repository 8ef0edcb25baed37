package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ShakaTry/DiceBot/internal/dice"
	"github.com/ShakaTry/DiceBot/internal/engine"
	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/metrics"
	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/services"
	"github.com/ShakaTry/DiceBot/internal/sink"
	"github.com/ShakaTry/DiceBot/internal/strategy"
	"github.com/ShakaTry/DiceBot/internal/vault"
)

// SimulationRequest is the POST /api/simulations payload.
type SimulationRequest struct {
	Strategy strategy.Config `json:"strategy" binding:"required"`

	TotalCapital         decimal.Decimal `json:"total_capital" binding:"required"`
	VaultRatio           float64         `json:"vault_ratio"`
	SessionBankrollRatio float64         `json:"session_bankroll_ratio"`

	Sessions int  `json:"sessions"`
	Parallel bool `json:"parallel"`
	Workers  int  `json:"workers"`

	Session *models.SessionConfig `json:"session,omitempty"`
}

type SimulationHandler struct {
	redisService *services.RedisService
	broadcaster  *WebSocketHandler
	log          *zap.Logger
}

func NewSimulationHandler(redisService *services.RedisService, broadcaster *WebSocketHandler, log *zap.Logger) *SimulationHandler {
	return &SimulationHandler{
		redisService: redisService,
		broadcaster:  broadcaster,
		log:          log,
	}
}

// RunSimulation runs a simulation synchronously and returns its summary
// and per-session results. The run is checkpointed to Redis so it can
// be listed and reloaded later.
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Sessions <= 0 {
		req.Sessions = 1
	}
	if req.VaultRatio == 0 {
		req.VaultRatio = models.DefaultVaultRatio
	}
	if req.SessionBankrollRatio == 0 {
		req.SessionBankrollRatio = models.DefaultSessionBankrollRatio
	}
	sessionCfg := models.DefaultSessionConfig()
	if req.Session != nil {
		sessionCfg = *req.Session
	}

	gameCfg := models.DefaultGameConfig()
	strat, err := strategy.New(req.Strategy, gameCfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vlt, err := vault.New(models.VaultConfig{
		TotalCapital:         req.TotalCapital,
		VaultRatio:           req.VaultRatio,
		SessionBankrollRatio: req.SessionBankrollRatio,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gen, err := fair.New("", "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seed generator"})
		return
	}

	sinks := sink.MultiSink{metrics.Sink{}}
	if h.broadcaster != nil {
		sinks = append(sinks, h.broadcaster.Sink())
	}

	simulationID := models.NewSimulationID(req.Strategy.Name)

	opts := engine.Options{
		Sink:   sinks,
		Logger: h.log,
	}
	if h.redisService != nil {
		// Long sequential runs checkpoint in flight, so a crash loses at
		// most one interval of sessions.
		opts.Checkpoint = func(completed []engine.SessionResult) {
			h.saveCheckpoint(simulationID, req, completed, vlt.Total())
		}
	}

	eng := engine.New(dice.New(gameCfg, gen), strat, vlt, sessionCfg, opts)

	var sessionResults []engine.SessionResult
	if req.Parallel {
		sessionResults, err = eng.RunParallel(c.Request.Context(), req.Sessions, req.Workers)
	} else {
		sessionResults, err = eng.RunSessions(c.Request.Context(), req.Sessions, true)
	}
	if err != nil && len(sessionResults) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary := engine.Summarize(sessionResults)

	if h.redisService != nil {
		h.saveCheckpoint(simulationID, req, sessionResults, vlt.Total())
	}

	c.JSON(http.StatusOK, gin.H{
		"simulation_id": simulationID,
		"summary":       summary,
		"results":       sessionResults,
		"vault": gin.H{
			"reserve":  vlt.Vault(),
			"bankroll": vlt.Bankroll(),
			"total":    vlt.Total(),
		},
	})
}

func (h *SimulationHandler) saveCheckpoint(simulationID string, req SimulationRequest, completed []engine.SessionResult, currentCapital decimal.Decimal) {
	checkpoint := services.CheckpointSummary{
		SimulationID:      simulationID,
		Strategy:          req.Strategy,
		RequestedSessions: req.Sessions,
		CompletedSessions: len(completed),
		TotalCapital:      req.TotalCapital,
		CurrentCapital:    currentCapital,
	}
	if err := h.redisService.SaveCheckpoint(checkpoint, completed); err != nil {
		h.log.Warn("checkpoint save failed",
			zap.String("simulation_id", simulationID),
			zap.Error(err),
		)
	}
}

// ListSimulations returns checkpointed simulation summaries, newest
// first.
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	ids, err := h.redisService.ListCheckpoints(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summaries := make([]services.CheckpointSummary, 0, len(ids))
	for _, id := range ids {
		summary, _, err := h.redisService.LoadCheckpoint(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"simulations": summaries})
}

// GetSimulation returns one checkpointed simulation with its session
// results.
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	id := c.Param("id")

	summary, sessionResults, err := h.redisService.LoadCheckpoint(id)
	if err != nil {
		if errors.Is(err, services.ErrCheckpointNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "simulation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"results": sessionResults,
		"stats":   engine.Summarize(sessionResults),
	})
}

// DeleteSimulation removes a checkpointed simulation.
func (h *SimulationHandler) DeleteSimulation(c *gin.Context) {
	id := c.Param("id")

	if err := h.redisService.DeleteCheckpoint(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListStrategies returns the strategy names the factory accepts.
func (h *SimulationHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": strategy.Names()})
}
