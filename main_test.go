package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cohort-repayment/pkg/models"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Account.csv":     "AccountId,CustomerId,PaymentPlanId,RegistrationDate\n1,10,100,2020-05-03\n2,11,100,2020-05-28\n",
		"Customer.csv":    "CustomerId,Region\n10,North\n11,South\n",
		"PaymentPlan.csv": "PaymentPlanId,Product,TotalValue\n100,Lamp,1000\n",
		"Payment.csv":     "PaymentId,AccountId,Amount,ReceivedWhen\n1,1,500,2020-05-10\n2,1,500,2020-06-10\n3,2,1000,2020-05-30\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestRun_CSVExport(t *testing.T) {
	data := writeFixture(t)
	out := filepath.Join(t.TempDir(), "out")
	prom := filepath.Join(t.TempDir(), "run.prom")

	if err := run([]string{"-data", data, "-out", out, "-metrics-file", prom, "-region", "north,south"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(out, "percentage_paid.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if want := "Cohort,0,1\n2020-05,0.75,1\n"; string(raw) != want {
		t.Fatalf("got %q, want %q", raw, want)
	}
	if _, err := os.Stat(prom); err != nil {
		t.Fatalf("metrics file missing: %v", err)
	}
}

func TestRun_NoSource(t *testing.T) {
	t.Setenv("REPAYMENT_DATA_DIR", "")
	t.Setenv("REPAYMENT_DSN", "")
	err := run(nil)
	if !errors.Is(err, models.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestRun_BadCohortRange(t *testing.T) {
	if err := run([]string{"-data", t.TempDir(), "-from", "2020-06", "-to", "2020-05"}); err == nil {
		t.Fatal("expected error for inverted cohort range, got nil")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" North, ,South ,")
	if len(got) != 2 || got[0] != "North" || got[1] != "South" {
		t.Fatalf("got %q", got)
	}
	if splitList("") != nil {
		t.Fatal("expected nil for empty list")
	}
}
