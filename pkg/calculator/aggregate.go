package calculator

import (
	"cmp"
	"slices"
	"strconv"

	"cohort-repayment/pkg/models"

	"github.com/shopspring/decimal"
)

type groupKey struct {
	cohort      models.Month
	monthsAfter int
	accountID   string
	region      string
	product     string
}

// Aggregate regroupe par (Cohort, MonthsAfter, AccountID, Region, Product) :
// Amount est sommé, TotalValue prend le maximum du groupe.
// Les lignes sont triées par clé croissante.
func Aggregate(records []models.PaymentRecord) []models.GroupedRow {
	index := make(map[groupKey]int)
	var rows []models.GroupedRow
	for _, r := range records {
		k := groupKey{r.Cohort, r.MonthsAfter, r.AccountID, r.Region, r.Product}
		i, ok := index[k]
		if !ok {
			index[k] = len(rows)
			rows = append(rows, models.GroupedRow{
				Cohort:      r.Cohort,
				MonthsAfter: r.MonthsAfter,
				AccountID:   r.AccountID,
				Region:      r.Region,
				Product:     r.Product,
				Amount:      r.Amount,
				TotalValue:  r.TotalValue,
			})
			continue
		}
		rows[i].Amount = rows[i].Amount.Add(r.Amount)
		if r.TotalValue.GreaterThan(rows[i].TotalValue) {
			rows[i].TotalValue = r.TotalValue
		}
	}
	slices.SortStableFunc(rows, compareGrouped)
	return rows
}

// Dedupe conserve TotalValue sur la première ligne de chaque compte (dans l'ordre
// de rows) et le remet à zéro sur toutes les suivantes.
// rows n'est pas modifié.
func Dedupe(rows []models.GroupedRow) []models.GroupedRow {
	out := make([]models.GroupedRow, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if _, dup := seen[r.AccountID]; dup {
			r.TotalValue = decimal.Zero
		}
		seen[r.AccountID] = struct{}{}
		out[i] = r
	}
	return out
}

func compareGrouped(a, b models.GroupedRow) int {
	if c := cmp.Compare(a.Cohort.Index(), b.Cohort.Index()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.MonthsAfter, b.MonthsAfter); c != 0 {
		return c
	}
	if c := compareIDs(a.AccountID, b.AccountID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Region, b.Region); c != 0 {
		return c
	}
	return cmp.Compare(a.Product, b.Product)
}

// compareIDs compare numériquement deux identifiants entiers, lexicalement sinon.
func compareIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil && ai != bi {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}
