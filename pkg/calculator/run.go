package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cohort-repayment/pkg/logging"
	"cohort-repayment/pkg/metrics"
	"cohort-repayment/pkg/models"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

var stages = []string{"load", "join", "filter", "derive", "aggregate", "dedupe", "cumulate", "pivot"}

// Pipeline enchaîne chargement, jointure, dérivation, agrégation et pivot.
type Pipeline struct {
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New construit un Pipeline ; log et m peuvent être nil.
func New(log *slog.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{log: log, metrics: m}
}

// Run exécute le calcul complet avec un Pipeline par défaut.
func Run(ctx context.Context, src models.Source, cfg models.Config) (*models.Result, error) {
	return New(nil, nil).Run(ctx, src, cfg)
}

// Run charge le Dataset depuis src puis calcule la matrice.
func (p *Pipeline) Run(ctx context.Context, src models.Source, cfg models.Config) (*models.Result, error) {
	if src == nil {
		return nil, models.ErrNoSource
	}
	runID := uuid.NewString()
	log := p.log.With("run_id", runID)

	bar := newBar(cfg.Verbose)
	defer func() { _ = bar.Finish() }()

	start := time.Now()
	bar.Describe("load")
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	p.metrics.ObserveStage("load", start)
	p.metrics.RecordsLoaded.WithLabelValues("account").Add(float64(len(ds.Accounts)))
	p.metrics.RecordsLoaded.WithLabelValues("customer").Add(float64(len(ds.Customers)))
	p.metrics.RecordsLoaded.WithLabelValues("payment").Add(float64(len(ds.Payments)))
	p.metrics.RecordsLoaded.WithLabelValues("payment_plan").Add(float64(len(ds.PaymentPlans)))
	log.Info("dataset loaded",
		"accounts", len(ds.Accounts), "customers", len(ds.Customers),
		"payments", len(ds.Payments), "payment_plans", len(ds.PaymentPlans))
	_ = bar.Add(1)

	res, err := p.compute(ctx, ds, cfg, bar, log)
	if err != nil {
		return nil, err
	}
	res.RunID = runID
	p.metrics.LastSuccess.SetToCurrentTime()
	return res, nil
}

// Compute exécute le calcul sur un Dataset déjà chargé.
func (p *Pipeline) Compute(ctx context.Context, ds models.Dataset, cfg models.Config) (*models.Result, error) {
	bar := newBar(false)
	_ = bar.Add(1)
	res, err := p.compute(ctx, ds, cfg, bar, p.log)
	if err != nil {
		return nil, err
	}
	res.RunID = uuid.NewString()
	return res, nil
}

func (p *Pipeline) compute(ctx context.Context, ds models.Dataset, cfg models.Config, bar *progressbar.ProgressBar, log *slog.Logger) (*models.Result, error) {
	var q models.QualityReport

	step := func(name string, fn func()) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		bar.Describe(name)
		start := time.Now()
		fn()
		p.metrics.ObserveStage(name, start)
		_ = bar.Add(1)
		return nil
	}

	var records []models.PaymentRecord
	if err := step("join", func() {
		var js JoinStats
		records, js = Join(ds)
		q.AccountsWithoutCustomer = js.AccountsWithoutCustomer
		q.AccountsWithoutPlan = js.AccountsWithoutPlan
		q.PaymentsWithoutAccount = js.PaymentsWithoutAccount
		q.DuplicateAccounts = js.DuplicateAccounts
		q.DuplicateCustomers = js.DuplicateCustomers
		q.DuplicatePlans = js.DuplicatePlans
	}); err != nil {
		return nil, err
	}
	p.metrics.Dropped("account_without_customer", q.AccountsWithoutCustomer)
	p.metrics.Dropped("account_without_plan", q.AccountsWithoutPlan)
	p.metrics.Dropped("payment_without_account", q.PaymentsWithoutAccount)
	log.Debug("joined", "records", len(records),
		"accounts_without_customer", q.AccountsWithoutCustomer,
		"accounts_without_plan", q.AccountsWithoutPlan,
		"payments_without_account", q.PaymentsWithoutAccount)

	if err := step("filter", func() {
		records, q.FilteredOut = SegmentOf(cfg).Filter(records)
	}); err != nil {
		return nil, err
	}
	p.metrics.Dropped("filtered", q.FilteredOut)

	if err := step("derive", func() {
		st := Derive(records)
		q.NegativeOffsets = st.NegativeOffsets
		q.NegativeOffsetPayments = st.NegativeOffsetPayments
		if cfg.DropNegativeOffsets && st.NegativeOffsets > 0 {
			records = DropNegativeOffsets(records)
			q.NegativeOffsetsDropped = true
		}
	}); err != nil {
		return nil, err
	}
	p.metrics.NegativeOffsets.Add(float64(q.NegativeOffsets))
	if q.NegativeOffsetsDropped {
		p.metrics.Dropped("negative_offset", q.NegativeOffsets)
	}
	if q.NegativeOffsets > 0 {
		log.Debug("payments received before registration month",
			"count", q.NegativeOffsets, "dropped", q.NegativeOffsetsDropped,
			"payment_ids", sample(q.NegativeOffsetPayments, 10))
	}

	var grouped []models.GroupedRow
	if err := step("aggregate", func() {
		grouped = Aggregate(records)
	}); err != nil {
		return nil, err
	}
	if err := step("dedupe", func() {
		grouped = Dedupe(grouped)
	}); err != nil {
		return nil, err
	}
	log.Debug("grouped", "rows", len(grouped))

	var points []models.CohortPoint
	if err := step("cumulate", func() {
		points, q.ZeroTotalBuckets = Cumulate(grouped)
	}); err != nil {
		return nil, err
	}

	var matrix models.Matrix
	if err := step("pivot", func() {
		matrix = Pivot(points)
	}); err != nil {
		return nil, err
	}
	p.metrics.Cohorts.Set(float64(len(matrix.Cohorts)))
	p.metrics.ZeroTotalBuckets.Set(float64(q.ZeroTotalBuckets))

	for _, w := range q.Warnings() {
		log.Warn(w)
	}
	log.Info("matrix computed", "cohorts", len(matrix.Cohorts), "offsets", len(matrix.Offsets), "points", len(points))

	return &models.Result{
		Matrix:    matrix,
		Retention: matrix.Normalize(),
		Points:    points,
		Grouped:   grouped,
		Quality:   q,
	}, nil
}

func newBar(verbose bool) *progressbar.ProgressBar {
	if verbose {
		return progressbar.NewOptions64(int64(len(stages)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("cohort repayment"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	return progressbar.DefaultSilent(int64(len(stages)))
}

func sample(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[:n]
}
