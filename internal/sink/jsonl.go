package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Record types routed to dedicated files.
const (
	TypeBasicStrategy  = "basic"
	TypeComposite      = "composite"
	TypeAdaptive       = "adaptive"
	TypeSingleRun      = "single"
	TypeComparison     = "comparison"
	TypeParameterSweep = "parameter_sweep"
)

// Record is one JSONL line: a type tag, a timestamp and an arbitrary
// payload.
type Record struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// JSONLWriter appends records as JSON lines under a root directory,
// routed into subdirectories by record type.
type JSONLWriter struct {
	root string

	mu    sync.Mutex
	files map[string]*os.File
}

func NewJSONLWriter(root string) *JSONLWriter {
	return &JSONLWriter{root: root, files: make(map[string]*os.File)}
}

// pathFor routes a record type to its log file. Strategy records go
// under strategies/, simulation records under simulations/ and anything
// else under sessions/manual.jsonl.
func pathFor(recordType string) string {
	switch recordType {
	case TypeBasicStrategy, TypeComposite, TypeAdaptive:
		return filepath.Join("strategies", recordType+".jsonl")
	case TypeSingleRun, TypeComparison, TypeParameterSweep:
		return filepath.Join("simulations", recordType+".jsonl")
	default:
		return filepath.Join("sessions", "manual.jsonl")
	}
}

// StrategyRecordType maps a strategy name to its per-strategy log
// type. Composite and adaptive trees get their own logs, every other
// strategy shares the basic one.
func StrategyRecordType(strategyName string) string {
	switch strategyName {
	case TypeComposite, TypeAdaptive:
		return strategyName
	default:
		return TypeBasicStrategy
	}
}

// Write appends one record for the given type.
func (w *JSONLWriter) Write(recordType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", recordType, err)
	}
	line, err := json.Marshal(Record{Type: recordType, Timestamp: time.Now(), Data: data})
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", recordType, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.file(recordType)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing %s record: %w", recordType, err)
	}
	return nil
}

func (w *JSONLWriter) file(recordType string) (*os.File, error) {
	rel := pathFor(recordType)
	if f, ok := w.files[rel]; ok {
		return f, nil
	}

	full := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	w.files[rel] = f
	return f, nil
}

// Close closes every file the writer opened.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for rel, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(w.files, rel)
	}
	return firstErr
}

// ReadRecords reads a JSONL file back, skipping malformed lines so one
// corrupt entry never loses a whole log.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	return records, nil
}

// JSONLSink persists simulation events through a JSONLWriter. The
// record type is fixed at construction so callers route strategy runs
// and simulation modes to their own files.
type JSONLSink struct {
	w          *JSONLWriter
	recordType string
}

func NewJSONLSink(w *JSONLWriter, recordType string) *JSONLSink {
	return &JSONLSink{w: w, recordType: recordType}
}

type betDecisionEvent struct {
	Event     string             `json:"event"`
	SessionID string             `json:"session_id"`
	BetIndex  int                `json:"bet_index"`
	Decision  models.BetDecision `json:"decision"`
}

type betResultEvent struct {
	Event     string         `json:"event"`
	SessionID string         `json:"session_id"`
	BetIndex  int            `json:"bet_index"`
	Outcome   models.Outcome `json:"outcome"`
}

type sessionStartEvent struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Strategy  string          `json:"strategy"`
	Bankroll  decimal.Decimal `json:"bankroll"`
}

type sessionEndEvent struct {
	Event      string            `json:"event"`
	SessionID  string            `json:"session_id"`
	StopReason string            `json:"stop_reason"`
	State      *models.GameState `json:"state"`
}

type strategyEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Strategy  string `json:"strategy"`
	Message   string `json:"message"`
}

type errorEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

func (s *JSONLSink) BetDecision(id string, i int, d models.BetDecision) {
	_ = s.w.Write(s.recordType, betDecisionEvent{Event: "bet_decision", SessionID: id, BetIndex: i, Decision: d})
}

func (s *JSONLSink) BetResult(id string, i int, o models.Outcome) {
	_ = s.w.Write(s.recordType, betResultEvent{Event: "bet_result", SessionID: id, BetIndex: i, Outcome: o})
}

func (s *JSONLSink) SessionStart(id, strategy string, bankroll decimal.Decimal) {
	_ = s.w.Write(s.recordType, sessionStartEvent{Event: "session_start", SessionID: id, Strategy: strategy, Bankroll: bankroll})
}

func (s *JSONLSink) SessionEnd(id, reason string, state *models.GameState) {
	_ = s.w.Write(s.recordType, sessionEndEvent{Event: "session_end", SessionID: id, StopReason: reason, State: state})
}

func (s *JSONLSink) StrategyEvent(id, strategy, message string) {
	_ = s.w.Write(s.recordType, strategyEvent{Event: "strategy_event", SessionID: id, Strategy: strategy, Message: message})
}

func (s *JSONLSink) Error(id string, err error) {
	_ = s.w.Write(s.recordType, errorEvent{Event: "error", SessionID: id, Error: err.Error()})
}
