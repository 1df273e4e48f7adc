package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cohort-repayment/pkg/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Files nomme les quatre fichiers attendus dans le répertoire.
type Files struct {
	Accounts     string
	Customers    string
	Payments     string
	PaymentPlans string
}

// DefaultFiles correspond à l'export d'origine (Account.csv, Customer.csv, ...).
var DefaultFiles = Files{
	Accounts:     "Account.csv",
	Customers:    "Customer.csv",
	Payments:     "Payment.csv",
	PaymentPlans: "PaymentPlan.csv",
}

// CSVSource charge un Dataset depuis un répertoire de fichiers CSV.
type CSVSource struct {
	Dir   string
	Files Files
}

// NewCSVSource utilise les noms de fichiers par défaut.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir, Files: DefaultFiles}
}

// Load lit les quatre fichiers en parallèle.
func (s *CSVSource) Load(ctx context.Context) (models.Dataset, error) {
	var ds models.Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ds.Accounts, err = readFile(ctx, s.path(s.Files.Accounts), ReadAccounts)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Customers, err = readFile(ctx, s.path(s.Files.Customers), ReadCustomers)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Payments, err = readFile(ctx, s.path(s.Files.Payments), ReadPayments)
		return err
	})
	g.Go(func() error {
		var err error
		ds.PaymentPlans, err = readFile(ctx, s.path(s.Files.PaymentPlans), ReadPaymentPlans)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.Dataset{}, err
	}
	return ds, nil
}

func (s *CSVSource) path(name string) string {
	return filepath.Join(s.Dir, name)
}

func readFile[T any](ctx context.Context, path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// ReadAccounts lit AccountId, CustomerId, PaymentPlanId, RegistrationDate.
func ReadAccounts(r io.Reader) ([]models.Account, error) {
	var out []models.Account
	err := scan(r, []string{"AccountId", "CustomerId", "PaymentPlanId", "RegistrationDate"}, func(row record) error {
		reg, err := row.date("RegistrationDate")
		if err != nil {
			return err
		}
		out = append(out, models.Account{
			AccountID:        row.str("AccountId"),
			CustomerID:       row.str("CustomerId"),
			PaymentPlanID:    row.str("PaymentPlanId"),
			RegistrationDate: reg,
		})
		return nil
	})
	return out, err
}

// ReadCustomers lit CustomerId, Region.
func ReadCustomers(r io.Reader) ([]models.Customer, error) {
	var out []models.Customer
	err := scan(r, []string{"CustomerId", "Region"}, func(row record) error {
		out = append(out, models.Customer{
			CustomerID: row.str("CustomerId"),
			Region:     row.str("Region"),
		})
		return nil
	})
	return out, err
}

// ReadPaymentPlans lit PaymentPlanId, Product, TotalValue.
func ReadPaymentPlans(r io.Reader) ([]models.PaymentPlan, error) {
	var out []models.PaymentPlan
	err := scan(r, []string{"PaymentPlanId", "Product", "TotalValue"}, func(row record) error {
		total, err := row.decimal("TotalValue")
		if err != nil {
			return err
		}
		out = append(out, models.PaymentPlan{
			PaymentPlanID: row.str("PaymentPlanId"),
			Product:       row.str("Product"),
			TotalValue:    total,
		})
		return nil
	})
	return out, err
}

// ReadPayments lit PaymentId, AccountId, Amount, ReceivedWhen.
func ReadPayments(r io.Reader) ([]models.Payment, error) {
	var out []models.Payment
	err := scan(r, []string{"PaymentId", "AccountId", "Amount", "ReceivedWhen"}, func(row record) error {
		amount, err := row.decimal("Amount")
		if err != nil {
			return err
		}
		received, err := row.date("ReceivedWhen")
		if err != nil {
			return err
		}
		out = append(out, models.Payment{
			PaymentID:    row.str("PaymentId"),
			AccountID:    row.str("AccountId"),
			Amount:       amount,
			ReceivedWhen: received,
		})
		return nil
	})
	return out, err
}

// record est une ligne CSV adressée par nom de colonne.
type record struct {
	line   int
	fields []string
	index  map[string]int
}

func (r record) str(col string) string {
	return strings.TrimSpace(r.fields[r.index[strings.ToLower(col)]])
}

func (r record) decimal(col string) (decimal.Decimal, error) {
	raw := r.str(col)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("line %d, column %s: invalid number %q", r.line, col, raw)
	}
	return d, nil
}

func (r record) date(col string) (time.Time, error) {
	raw := r.str(col)
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("line %d, column %s: %w", r.line, col, err)
	}
	return t, nil
}

func scan(r io.Reader, required []string, fn func(record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty file: %w", models.ErrMissingColumn)
		}
		return err
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, col := range required {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return fmt.Errorf("%w: %s", models.ErrMissingColumn, col)
		}
	}

	var line int
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ = cr.FieldPos(0)
		if isBlank(fields) {
			continue
		}
		for _, col := range required {
			if index[strings.ToLower(col)] >= len(fields) {
				return fmt.Errorf("line %d: %w: %s", line, models.ErrMissingColumn, col)
			}
		}
		if err := fn(record{line: line, fields: fields, index: index}); err != nil {
			return err
		}
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
