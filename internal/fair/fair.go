// Package fair implements the Bitsler-compatible provably fair dice roll
// generator: HMAC-SHA512 over "{client_seed},{nonce}" keyed by the server
// seed, scanned in 5-hex-character windows for the first value <= 999999.
package fair

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Tolerance is the accepted difference when verifying a claimed roll.
const Tolerance = 0.005

// SeedPair is one server seed / client seed / nonce triple. The server seed
// stays secret until the pair is rotated out and archived.
type SeedPair struct {
	ServerSeed string `json:"server_seed,omitempty"`
	ClientSeed string `json:"client_seed"`
	Nonce      int64  `json:"nonce"`
}

// ServerSeedHash is the SHA-256 of the server seed, safe to publish before
// the seed is revealed.
func (sp SeedPair) ServerSeedHash() string {
	sum := sha256.Sum256([]byte(sp.ServerSeed))
	return hex.EncodeToString(sum[:])
}

// Generator produces verifiable dice rolls. It is not safe for concurrent
// use; each simulation worker owns its own instance.
type Generator struct {
	current SeedPair
	history []SeedPair
}

// New creates a generator. Empty seeds are replaced with cryptographically
// random values (32 bytes server, 16 bytes client).
func New(serverSeed, clientSeed string) (*Generator, error) {
	if serverSeed == "" {
		s, err := randomHex(32)
		if err != nil {
			return nil, err
		}
		serverSeed = s
	}
	if clientSeed == "" {
		s, err := randomHex(16)
		if err != nil {
			return nil, err
		}
		clientSeed = s
	}

	return &Generator{
		current: SeedPair{ServerSeed: serverSeed, ClientSeed: clientSeed},
	}, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Roll generates the next dice result in [0, 100) with two-decimal
// precision and consumes the current nonce.
func (g *Generator) Roll() float64 {
	result := rollAt(g.current.ServerSeed, g.current.ClientSeed, g.current.Nonce)
	g.current.Nonce++
	return result
}

// Rotate archives the current pair (revealing its server seed with the final
// nonce), generates a fresh server seed, keeps the client seed and resets
// the nonce to 0. It returns the archived pair for verification.
func (g *Generator) Rotate() (SeedPair, error) {
	serverSeed, err := randomHex(32)
	if err != nil {
		// The current pair stays live; a failed rotation changes nothing.
		return SeedPair{}, err
	}

	old := g.current
	g.history = append(g.history, old)

	g.current = SeedPair{
		ServerSeed: serverSeed,
		ClientSeed: old.ClientSeed,
	}
	return old, nil
}

// SetClientSeed replaces the client seed for subsequent rolls.
func (g *Generator) SetClientSeed(clientSeed string) error {
	clientSeed = strings.TrimSpace(clientSeed)
	if clientSeed == "" {
		return fmt.Errorf("%w: client seed cannot be empty", models.ErrInvalidParameter)
	}
	g.current.ClientSeed = clientSeed
	return nil
}

// Nonce is the nonce the next roll will consume.
func (g *Generator) Nonce() int64 {
	return g.current.Nonce
}

// Current returns the public view of the active pair: the server seed is
// replaced by its hash.
func (g *Generator) Current() SeedPair {
	return SeedPair{
		ServerSeed: "",
		ClientSeed: g.current.ClientSeed,
		Nonce:      g.current.Nonce,
	}
}

// CurrentServerSeedHash is the published commitment for the active pair.
func (g *Generator) CurrentServerSeedHash() string {
	return g.current.ServerSeedHash()
}

// History returns the archived, fully revealed seed pairs.
func (g *Generator) History() []SeedPair {
	out := make([]SeedPair, len(g.history))
	copy(out, g.history)
	return out
}

// FindArchived looks up a revealed pair by its server seed hash.
func (g *Generator) FindArchived(serverSeedHash string) (SeedPair, bool) {
	for _, sp := range g.history {
		if sp.ServerSeedHash() == serverSeedHash {
			return sp, true
		}
	}
	return SeedPair{}, false
}

// Verify recomputes the roll for the given seeds and nonce and compares it
// to the claimed result within Tolerance.
func Verify(serverSeed, clientSeed string, nonce int64, claimed float64) bool {
	return math.Abs(rollAt(serverSeed, clientSeed, nonce)-claimed) < Tolerance
}

// Check is a VerificationMismatch-style structured diff: everything needed
// to audit one roll independently. It is a value, never an error.
type Check struct {
	ServerSeed     string  `json:"server_seed"`
	ServerSeedHash string  `json:"server_seed_hash"`
	ClientSeed     string  `json:"client_seed"`
	Nonce          int64   `json:"nonce"`
	Message        string  `json:"message"`
	Digest         string  `json:"hmac_sha512"`
	Number         int64   `json:"extracted_number"`
	Calculated     float64 `json:"calculated_result"`
	Claimed        float64 `json:"claimed_result"`
	Difference     float64 `json:"difference"`
	Valid          bool    `json:"valid"`
}

// VerifyDetail recomputes a roll and returns the full audit trail.
func VerifyDetail(serverSeed, clientSeed string, nonce int64, claimed float64) Check {
	message := fmt.Sprintf("%s,%d", clientSeed, nonce)
	digest := hmacSHA512(serverSeed, message)
	number := extractNumber(digest)
	calculated := float64(number%10000) / 100

	pair := SeedPair{ServerSeed: serverSeed}
	diff := math.Abs(calculated - claimed)

	return Check{
		ServerSeed:     serverSeed,
		ServerSeedHash: pair.ServerSeedHash(),
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		Message:        message,
		Digest:         digest,
		Number:         number,
		Calculated:     calculated,
		Claimed:        claimed,
		Difference:     diff,
		Valid:          diff < Tolerance,
	}
}

func rollAt(serverSeed, clientSeed string, nonce int64) float64 {
	digest := hmacSHA512(serverSeed, fmt.Sprintf("%s,%d", clientSeed, nonce))
	return float64(extractNumber(digest)%10000) / 100
}

func hmacSHA512(key, message string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// extractNumber scans the hex digest in 5-character windows with step 5 and
// returns the first value <= 999999. If no window qualifies it falls back to
// the first window modulo 1,000,000.
func extractNumber(digest string) int64 {
	for offset := 0; offset+5 <= len(digest); offset += 5 {
		n, err := strconv.ParseInt(digest[offset:offset+5], 16, 64)
		if err != nil {
			continue
		}
		if n <= 999999 {
			return n
		}
	}

	n, _ := strconv.ParseInt(digest[:5], 16, 64)
	return n % 1000000
}
