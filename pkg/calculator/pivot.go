package calculator

import (
	"cmp"
	"math"
	"slices"

	"cohort-repayment/pkg/models"

	"github.com/samber/lo"
)

// Pivot met les points sous forme de matrice : cohortes croissantes en lignes,
// décalages observés (toutes cohortes confondues) en colonnes. Une cellule sans point vaut NaN.
func Pivot(points []models.CohortPoint) models.Matrix {
	cohorts := lo.Uniq(lo.Map(points, func(p models.CohortPoint, _ int) models.Month { return p.Cohort }))
	slices.SortFunc(cohorts, func(a, b models.Month) int { return cmp.Compare(a.Index(), b.Index()) })

	offsets := lo.Uniq(lo.Map(points, func(p models.CohortPoint, _ int) int { return p.MonthsAfter }))
	slices.Sort(offsets)

	rowOf := make(map[models.Month]int, len(cohorts))
	for i, c := range cohorts {
		rowOf[c] = i
	}
	colOf := make(map[int]int, len(offsets))
	for j, o := range offsets {
		colOf[o] = j
	}

	values := make([][]float64, len(cohorts))
	for i := range values {
		row := make([]float64, len(offsets))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}
	for _, p := range points {
		values[rowOf[p.Cohort]][colOf[p.MonthsAfter]] = p.PercentagePaid
	}

	return models.Matrix{Cohorts: cohorts, Offsets: offsets, Values: values}
}
