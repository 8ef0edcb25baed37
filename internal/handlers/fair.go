package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ShakaTry/DiceBot/internal/fair"
	"github.com/ShakaTry/DiceBot/internal/metrics"
)

// FairHandler exposes provably fair verification and manual seed
// management for interactive use.
type FairHandler struct {
	mu  sync.Mutex
	gen *fair.Generator
}

func NewFairHandler() (*FairHandler, error) {
	gen, err := fair.New("", "")
	if err != nil {
		return nil, err
	}
	return &FairHandler{gen: gen}, nil
}

type verifyRequest struct {
	ServerSeed  string  `json:"server_seed" binding:"required"`
	ClientSeed  string  `json:"client_seed" binding:"required"`
	Nonce       int64   `json:"nonce"`
	ClaimedRoll float64 `json:"claimed_roll"`
}

// VerifyRoll checks a claimed roll against its revealed seeds and
// returns the full calculation so a user can audit it.
func (h *FairHandler) VerifyRoll(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	check := fair.VerifyDetail(req.ServerSeed, req.ClientSeed, req.Nonce, req.ClaimedRoll)
	c.JSON(http.StatusOK, check)
}

// GetSeeds returns the current seed pair with the server seed hidden
// behind its hash.
func (h *FairHandler) GetSeeds(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current := h.gen.Current()
	c.JSON(http.StatusOK, gin.H{
		"server_seed_hash": h.gen.CurrentServerSeedHash(),
		"client_seed":      current.ClientSeed,
		"nonce":            current.Nonce,
	})
}

// RotateSeeds archives the current pair, revealing the old server seed,
// and starts a fresh one.
func (h *FairHandler) RotateSeeds(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	old, err := h.gen.Rotate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.SeedRotations.Inc()

	c.JSON(http.StatusOK, gin.H{
		"revealed": gin.H{
			"server_seed":      old.ServerSeed,
			"server_seed_hash": old.ServerSeedHash(),
			"client_seed":      old.ClientSeed,
			"final_nonce":      old.Nonce,
		},
		"current": gin.H{
			"server_seed_hash": h.gen.CurrentServerSeedHash(),
			"client_seed":      h.gen.Current().ClientSeed,
			"nonce":            int64(0),
		},
	})
}

type clientSeedRequest struct {
	ClientSeed string `json:"client_seed" binding:"required"`
}

// SetClientSeed replaces the client seed for future rolls.
func (h *FairHandler) SetClientSeed(c *gin.Context) {
	var req clientSeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.gen.SetClientSeed(req.ClientSeed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_seed":      h.gen.Current().ClientSeed,
		"server_seed_hash": h.gen.CurrentServerSeedHash(),
	})
}

// SeedHistory lists archived seed pairs, revealed server seeds
// included.
func (h *FairHandler) SeedHistory(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	history := h.gen.History()
	out := make([]gin.H, 0, len(history))
	for _, pair := range history {
		out = append(out, gin.H{
			"server_seed":      pair.ServerSeed,
			"server_seed_hash": pair.ServerSeedHash(),
			"client_seed":      pair.ClientSeed,
			"final_nonce":      pair.Nonce,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}
