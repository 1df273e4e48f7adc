package calculator

import (
	"cmp"
	"math"
	"slices"

	"cohort-repayment/pkg/models"

	"github.com/shopspring/decimal"
)

type bucketKey struct {
	cohort      models.Month
	monthsAfter int
}

// Cumulate somme Amount et TotalValue par (Cohort, MonthsAfter), puis calcule
// les cumuls par cohorte dans l'ordre croissant de MonthsAfter.
//
// PercentagePaid = CumAmount / CumTotal, NaN quand CumTotal est nul.
// Le second résultat compte ces points sans pourcentage.
func Cumulate(rows []models.GroupedRow) ([]models.CohortPoint, int) {
	index := make(map[bucketKey]int)
	var points []models.CohortPoint
	for _, r := range rows {
		k := bucketKey{r.Cohort, r.MonthsAfter}
		i, ok := index[k]
		if !ok {
			index[k] = len(points)
			points = append(points, models.CohortPoint{
				Cohort:      r.Cohort,
				MonthsAfter: r.MonthsAfter,
				Amount:      r.Amount,
				TotalValue:  r.TotalValue,
			})
			continue
		}
		points[i].Amount = points[i].Amount.Add(r.Amount)
		points[i].TotalValue = points[i].TotalValue.Add(r.TotalValue)
	}

	slices.SortFunc(points, func(a, b models.CohortPoint) int {
		if c := cmp.Compare(a.Cohort.Index(), b.Cohort.Index()); c != 0 {
			return c
		}
		return cmp.Compare(a.MonthsAfter, b.MonthsAfter)
	})

	var (
		zeroTotal int
		current   models.Month
		cumAmount decimal.Decimal
		cumTotal  decimal.Decimal
	)
	for i := range points {
		p := &points[i]
		if i == 0 || p.Cohort != current {
			current = p.Cohort
			cumAmount, cumTotal = decimal.Zero, decimal.Zero
		}
		cumAmount = cumAmount.Add(p.Amount)
		cumTotal = cumTotal.Add(p.TotalValue)
		p.CumAmount = cumAmount
		p.CumTotal = cumTotal
		p.PercentagePaid = ratio(cumAmount, cumTotal)
		if math.IsNaN(p.PercentagePaid) {
			zeroTotal++
		}
	}
	return points, zeroTotal
}

func ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return math.NaN()
	}
	return num.InexactFloat64() / den.InexactFloat64()
}
