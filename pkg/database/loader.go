package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cohort-repayment/pkg/dataset"
	"cohort-repayment/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Tables nomme les quatre tables sources.
type Tables struct {
	Accounts     string
	Customers    string
	Payments     string
	PaymentPlans string
}

// DefaultTables reprend les noms des exports CSV.
var DefaultTables = Tables{
	Accounts:     "Account",
	Customers:    "Customer",
	Payments:     "Payment",
	PaymentPlans: "PaymentPlan",
}

func (t Tables) validate() error {
	for _, name := range []string{t.Accounts, t.Customers, t.Payments, t.PaymentPlans} {
		if !tableNameRe.MatchString(name) {
			return fmt.Errorf("%w: %q", models.ErrInvalidTable, name)
		}
	}
	return nil
}

// Open DSN mariadb://, mysql:// → format MySQL driver ; postgres:// → lib/pq.
// Renvoie aussi le driver et le DSN effectivement utilisés.
func Open(dsn string) (*sql.DB, string, string, error) {
	driver, nativeDSN, err := resolveDSN(dsn)
	if err != nil {
		return nil, "", "", err
	}
	db, err := sql.Open(driver, nativeDSN)
	if err != nil {
		return nil, "", "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, driver, nativeDSN, nil
}

func resolveDSN(dsn string) (driver, native string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	default:
		native, err = toMySQLDSN(dsn)
		return "mysql", native, err
	}
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// Redact masque le mot de passe d'un DSN avant de le journaliser.
func Redact(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil && u.Scheme != "" {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	// Format natif user:pass@tcp(host)/db
	if at := strings.Index(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon >= 0 {
			return dsn[:colon+1] + "xxxxx" + dsn[at:]
		}
	}
	return dsn
}

// Source charge le Dataset depuis une base MySQL/MariaDB ou PostgreSQL.
type Source struct {
	db     *sql.DB
	tables Tables
}

// NewSource valide les noms de tables.
func NewSource(db *sql.DB, tables Tables) (*Source, error) {
	if err := tables.validate(); err != nil {
		return nil, err
	}
	return &Source{db: db, tables: tables}, nil
}

// Load lit les quatre tables en parallèle ; la première erreur annule les autres lectures.
func (s *Source) Load(ctx context.Context) (models.Dataset, error) {
	var ds models.Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ds.Accounts, err = s.loadAccounts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Customers, err = s.loadCustomers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Payments, err = s.loadPayments(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.PaymentPlans, err = s.loadPaymentPlans(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.Dataset{}, err
	}
	return ds, nil
}

func accountsQuery(table string) string {
	return fmt.Sprintf(`SELECT AccountId, CustomerId, PaymentPlanId, RegistrationDate FROM %s`, table)
}

func customersQuery(table string) string {
	return fmt.Sprintf(`SELECT CustomerId, Region FROM %s`, table)
}

func paymentsQuery(table string) string {
	return fmt.Sprintf(`SELECT PaymentId, AccountId, Amount, ReceivedWhen FROM %s`, table)
}

func paymentPlansQuery(table string) string {
	return fmt.Sprintf(`SELECT PaymentPlanId, Product, TotalValue FROM %s`, table)
}

func (s *Source) loadAccounts(ctx context.Context) ([]models.Account, error) {
	return query(ctx, s.db, accountsQuery(s.tables.Accounts), func(rows *sql.Rows) (models.Account, error) {
		var (
			a   models.Account
			reg dateValue
		)
		err := rows.Scan(&a.AccountID, &a.CustomerID, &a.PaymentPlanID, &reg)
		a.RegistrationDate = reg.Time
		return a, err
	})
}

func (s *Source) loadCustomers(ctx context.Context) ([]models.Customer, error) {
	return query(ctx, s.db, customersQuery(s.tables.Customers), func(rows *sql.Rows) (models.Customer, error) {
		var (
			c      models.Customer
			region sql.NullString
		)
		err := rows.Scan(&c.CustomerID, &region)
		c.Region = region.String
		return c, err
	})
}

func (s *Source) loadPayments(ctx context.Context) ([]models.Payment, error) {
	return query(ctx, s.db, paymentsQuery(s.tables.Payments), func(rows *sql.Rows) (models.Payment, error) {
		var (
			p        models.Payment
			amount   decimal.NullDecimal
			received dateValue
		)
		err := rows.Scan(&p.PaymentID, &p.AccountID, &amount, &received)
		p.Amount = amount.Decimal
		p.ReceivedWhen = received.Time
		return p, err
	})
}

func (s *Source) loadPaymentPlans(ctx context.Context) ([]models.PaymentPlan, error) {
	return query(ctx, s.db, paymentPlansQuery(s.tables.PaymentPlans), func(rows *sql.Rows) (models.PaymentPlan, error) {
		var (
			pp      models.PaymentPlan
			product sql.NullString
			total   decimal.NullDecimal
		)
		err := rows.Scan(&pp.PaymentPlanID, &product, &total)
		pp.Product = product.String
		pp.TotalValue = total.Decimal
		return pp, err
	})
}

func query[T any](ctx context.Context, db *sql.DB, q string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", q, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// dateValue accepte une colonne DATE/DATETIME ou une date stockée en texte.
type dateValue struct {
	Time time.Time
}

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v.UTC()
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	case nil:
		return fmt.Errorf("date NULL")
	default:
		return fmt.Errorf("type de date non supporté %T", src)
	}
}

func (d *dateValue) parse(s string) error {
	t, err := dataset.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
