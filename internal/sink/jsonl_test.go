package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

func TestPathRouting(t *testing.T) {
	tests := []struct {
		recordType string
		want       string
	}{
		{TypeBasicStrategy, filepath.Join("strategies", "basic.jsonl")},
		{TypeComposite, filepath.Join("strategies", "composite.jsonl")},
		{TypeAdaptive, filepath.Join("strategies", "adaptive.jsonl")},
		{TypeSingleRun, filepath.Join("simulations", "single.jsonl")},
		{TypeComparison, filepath.Join("simulations", "comparison.jsonl")},
		{TypeParameterSweep, filepath.Join("simulations", "parameter_sweep.jsonl")},
		{"something_else", filepath.Join("sessions", "manual.jsonl")},
	}
	for _, tt := range tests {
		if got := pathFor(tt.recordType); got != tt.want {
			t.Errorf("pathFor(%q) = %q, want %q", tt.recordType, got, tt.want)
		}
	}
}

func TestWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLWriter(dir)
	defer w.Close()

	s := NewJSONLSink(w, TypeSingleRun)
	s.SessionStart("s1", "flat", decimal.NewFromInt(100))
	s.BetResult("s1", 0, models.Outcome{Roll: 4.43, Won: true, Amount: decimal.NewFromInt(1), Payout: decimal.NewFromInt(2), Target: 50, BetType: models.BetUnder})
	s.SessionEnd("s1", "max_bets", models.NewGameState(decimal.NewFromInt(100)))

	records, err := ReadRecords(filepath.Join(dir, "simulations", "single.jsonl"))
	if err != nil {
		t.Fatalf("reading records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, r := range records {
		if r.Type != TypeSingleRun {
			t.Errorf("record %d type = %q, want single", i, r.Type)
		}
		if r.Timestamp.IsZero() {
			t.Errorf("record %d has zero timestamp", i)
		}
	}
}

func TestReadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.jsonl")

	content := `{"type":"single","timestamp":"2026-08-30T12:00:00Z","data":{}}
this line is not json
{"type":"single","timestamp":"2026-08-30T12:00:01Z","data":{}}

{truncated
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	records, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("reading records: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2 valid lines", len(records))
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLWriter(dir)
	defer w.Close()

	multi := MultiSink{NopSink{}, NewJSONLSink(w, TypeComparison)}
	multi.StrategyEvent("s1", "adaptive", "switched to martingale")

	records, err := ReadRecords(filepath.Join(dir, "simulations", "comparison.jsonl"))
	if err != nil {
		t.Fatalf("reading records: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}
}

func TestStrategyRecordType(t *testing.T) {
	cases := []struct {
		strategy string
		want     string
	}{
		{"flat", TypeBasicStrategy},
		{"martingale", TypeBasicStrategy},
		{"parking", TypeBasicStrategy},
		{"composite", TypeComposite},
		{"adaptive", TypeAdaptive},
	}
	for _, tc := range cases {
		if got := StrategyRecordType(tc.strategy); got != tc.want {
			t.Errorf("StrategyRecordType(%q) = %q, want %q", tc.strategy, got, tc.want)
		}
	}
}
