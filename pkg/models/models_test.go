package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestMonthIndex_Consecutive(t *testing.T) {
	dec := Month{Year: 2019, Month: time.December}
	jan := Month{Year: 2020, Month: time.January}
	if jan.Index()-dec.Index() != 1 {
		t.Fatalf("got %d, want 1", jan.Index()-dec.Index())
	}
	if got := jan.MonthsSince(dec); got != 1 {
		t.Fatalf("MonthsSince got %d, want 1", got)
	}
	if got := dec.MonthsSince(jan); got != -1 {
		t.Fatalf("MonthsSince got %d, want -1", got)
	}
}

func TestMonthOf(t *testing.T) {
	got := MonthOf(time.Date(2020, 5, 31, 23, 59, 0, 0, time.UTC))
	if got != (Month{Year: 2020, Month: time.May}) {
		t.Fatalf("got %v", got)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2020-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.String() != "2020-05" {
		t.Fatalf("got %q, want %q", m.String(), "2020-05")
	}
	if _, err := ParseMonth("052020"); err == nil {
		t.Fatal("expected error for invalid format, got nil")
	}
}

func TestMonth_JSONKey(t *testing.T) {
	raw, err := json.Marshal(map[Month]int{{Year: 2021, Month: time.March}: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"2021-03":3}` {
		t.Fatalf("got %s", raw)
	}
	var back map[Month]int
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back[Month{Year: 2021, Month: time.March}] != 3 {
		t.Fatalf("round trip lost key: %v", back)
	}
}

func TestMatrixNormalize(t *testing.T) {
	nan := math.NaN()
	m := Matrix{
		Cohorts: []Month{{2020, time.May}, {2020, time.June}, {2020, time.July}},
		Offsets: []int{0, 1},
		Values: [][]float64{
			{0.5, 1.0},
			{nan, 0.4},
			{0, 0.2},
		},
	}
	n := m.Normalize()

	if n.Values[0][0] != 1 || n.Values[0][1] != 2 {
		t.Fatalf("row 0: got %v", n.Values[0])
	}
	for _, row := range n.Values[1:] {
		for _, v := range row {
			if !math.IsNaN(v) {
				t.Fatalf("expected NaN row, got %v", row)
			}
		}
	}
	// la matrice source est intacte
	if m.Values[0][1] != 1.0 {
		t.Fatalf("source modified: %v", m.Values[0])
	}
}

func TestQualityReportWarnings(t *testing.T) {
	var q QualityReport
	if !q.Clean() {
		t.Fatalf("empty report should be clean: %v", q.Warnings())
	}
	q.AccountsWithoutCustomer = 2
	q.NegativeOffsets = 1
	w := q.Warnings()
	if len(w) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(w), w)
	}
	if w[1] != "1 payment(s) received before registration month (kept)" {
		t.Fatalf("unexpected warning: %q", w[1])
	}
}
