package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cohort-repayment/pkg/models"
)

// Files écrits par WriteDir.
const (
	MatrixFile    = "percentage_paid.csv"
	RetentionFile = "retention.csv"
	PointsFile    = "cohort_points.csv"
	GroupedFile   = "payment_grouped.csv"
)

// WriteMatrixCSV écrit la matrice : une ligne par cohorte, une colonne par décalage.
// Les cellules manquantes sont vides.
func WriteMatrixCSV(w io.Writer, m models.Matrix) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(m.Offsets)+1)
	header = append(header, "Cohort")
	for _, o := range m.Offsets {
		header = append(header, strconv.Itoa(o))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, c := range m.Cohorts {
		row := make([]string, 0, len(m.Offsets)+1)
		row = append(row, c.String())
		for _, v := range m.Values[i] {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePointsCSV écrit la table cumulée (Cohort, Months After, Amount, TotalValue, cum_amount, cum_total, percentage_paid).
func WritePointsCSV(w io.Writer, points []models.CohortPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Cohort", "Months After", "Amount", "TotalValue", "cum_amount", "cum_total", "percentage_paid"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{
			p.Cohort.String(),
			strconv.Itoa(p.MonthsAfter),
			p.Amount.String(),
			p.TotalValue.String(),
			p.CumAmount.String(),
			p.CumTotal.String(),
			formatFloat(p.PercentagePaid),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGroupedCSV écrit la table agrégée et dédoublonnée, filtrable par région et produit
// dans un outil de BI.
func WriteGroupedCSV(w io.Writer, rows []models.GroupedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Cohort", "Months After", "AccountId", "Region", "Product", "Amount", "TotalValue"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Cohort.String(),
			strconv.Itoa(r.MonthsAfter),
			r.AccountID,
			r.Region,
			r.Product,
			r.Amount.String(),
			r.TotalValue.String(),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDir écrit les quatre CSV du résultat dans dir.
func WriteDir(dir string, res *models.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	jobs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{MatrixFile, func(w io.Writer) error { return WriteMatrixCSV(w, res.Matrix) }},
		{RetentionFile, func(w io.Writer) error { return WriteMatrixCSV(w, res.Retention) }},
		{PointsFile, func(w io.Writer) error { return WritePointsCSV(w, res.Points) }},
		{GroupedFile, func(w io.Writer) error { return WriteGroupedCSV(w, res.Grouped) }},
	}
	written := make([]string, 0, len(jobs))
	for _, j := range jobs {
		path := filepath.Join(dir, j.name)
		if err := writeFile(path, j.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Report est la forme JSON d'un résultat ; null remplace les valeurs manquantes.
type Report struct {
	RunID       string       `json:"run_id"`
	GeneratedAt string       `json:"generated_at"`
	Offsets     []int        `json:"offsets"`
	Cohorts     []CohortRow  `json:"cohorts"`
	Warnings    []string     `json:"warnings"`
	Quality     QualityBlock `json:"quality"`
}

// CohortRow est une ligne de la matrice.
type CohortRow struct {
	Cohort         models.Month `json:"cohort"`
	PercentagePaid []*float64   `json:"percentage_paid"`
	Retention      []*float64   `json:"retention"`
}

// QualityBlock reprend les compteurs du QualityReport.
type QualityBlock struct {
	AccountsWithoutCustomer int  `json:"accounts_without_customer"`
	AccountsWithoutPlan     int  `json:"accounts_without_plan"`
	PaymentsWithoutAccount  int  `json:"payments_without_account"`
	DuplicateAccounts       int  `json:"duplicate_accounts"`
	DuplicateCustomers      int  `json:"duplicate_customers"`
	DuplicatePlans          int  `json:"duplicate_plans"`
	FilteredOut             int  `json:"filtered_out"`
	NegativeOffsets         int  `json:"negative_offsets"`
	NegativeOffsetsDropped  bool `json:"negative_offsets_dropped"`
	ZeroTotalBuckets        int  `json:"zero_total_buckets"`
}

// NewReport construit le Report d'un résultat.
func NewReport(res *models.Result, now time.Time) Report {
	q := res.Quality
	rep := Report{
		RunID:       res.RunID,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Offsets:     res.Matrix.Offsets,
		Warnings:    q.Warnings(),
		Quality: QualityBlock{
			AccountsWithoutCustomer: q.AccountsWithoutCustomer,
			AccountsWithoutPlan:     q.AccountsWithoutPlan,
			PaymentsWithoutAccount:  q.PaymentsWithoutAccount,
			DuplicateAccounts:       q.DuplicateAccounts,
			DuplicateCustomers:      q.DuplicateCustomers,
			DuplicatePlans:          q.DuplicatePlans,
			FilteredOut:             q.FilteredOut,
			NegativeOffsets:         q.NegativeOffsets,
			NegativeOffsetsDropped:  q.NegativeOffsetsDropped,
			ZeroTotalBuckets:        q.ZeroTotalBuckets,
		},
	}
	if rep.Warnings == nil {
		rep.Warnings = []string{}
	}
	for i, c := range res.Matrix.Cohorts {
		row := CohortRow{Cohort: c, PercentagePaid: nullable(res.Matrix.Values[i])}
		if i < len(res.Retention.Values) {
			row.Retention = nullable(res.Retention.Values[i])
		}
		rep.Cohorts = append(rep.Cohorts, row)
	}
	return rep
}

func ExportJSON(filename string, data interface{}) error {
	// Make sure the folder exists
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func TimestampedFilename(baseDir, name string, now time.Time) string {
	t := now.Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.json", name, t))
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
