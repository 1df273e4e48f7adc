package calculator

import (
	"strings"

	"cohort-repayment/pkg/models"

	"github.com/samber/lo"
)

// DeriveStats décrit les paiements antérieurs au mois d'inscription.
type DeriveStats struct {
	NegativeOffsets        int
	NegativeOffsetPayments []string
}

// Derive renseigne Cohort et MonthsAfter sur chaque ligne.
//
// MonthsAfter = index(ReceivedWhen) − index(RegistrationDate), avec index = year*12 + month.
// Un décalage négatif est conservé et compté.
func Derive(records []models.PaymentRecord) DeriveStats {
	var stats DeriveStats
	for i := range records {
		r := &records[i]
		r.Cohort = models.MonthOf(r.RegistrationDate)
		r.MonthsAfter = models.MonthOf(r.ReceivedWhen).MonthsSince(r.Cohort)
		if r.MonthsAfter < 0 {
			stats.NegativeOffsets++
			stats.NegativeOffsetPayments = append(stats.NegativeOffsetPayments, r.PaymentID)
		}
	}
	return stats
}

// DropNegativeOffsets retire les lignes dont MonthsAfter < 0.
func DropNegativeOffsets(records []models.PaymentRecord) []models.PaymentRecord {
	return lo.Filter(records, func(r models.PaymentRecord, _ int) bool {
		return r.MonthsAfter >= 0
	})
}

// Segment restreint le calcul à certaines régions, produits et cohortes.
type Segment struct {
	Regions    []string
	Products   []string
	FromCohort models.Month
	ToCohort   models.Month
}

// SegmentOf extrait le segment d'une Config.
func SegmentOf(cfg models.Config) Segment {
	return Segment{
		Regions:    cfg.Regions,
		Products:   cfg.Products,
		FromCohort: cfg.FromCohort,
		ToCohort:   cfg.ToCohort,
	}
}

// Empty indique qu'aucun filtre n'est actif.
func (s Segment) Empty() bool {
	return len(s.Regions) == 0 && len(s.Products) == 0 && s.FromCohort.IsZero() && s.ToCohort.IsZero()
}

// Filter applique le segment sur les lignes jointes.
// Renvoie les lignes retenues et le nombre de lignes écartées.
func (s Segment) Filter(records []models.PaymentRecord) ([]models.PaymentRecord, int) {
	if s.Empty() {
		return records, 0
	}
	regions := lowerSet(s.Regions)
	products := lowerSet(s.Products)

	kept := lo.Filter(records, func(r models.PaymentRecord, _ int) bool {
		if len(regions) > 0 && !regions[strings.ToLower(r.Region)] {
			return false
		}
		if len(products) > 0 && !products[strings.ToLower(r.Product)] {
			return false
		}
		cohort := models.MonthOf(r.RegistrationDate)
		if !s.FromCohort.IsZero() && cohort.Before(s.FromCohort) {
			return false
		}
		if !s.ToCohort.IsZero() && s.ToCohort.Before(cohort) {
			return false
		}
		return true
	})
	return kept, len(records) - len(kept)
}

func lowerSet(values []string) map[string]bool {
	values = lo.Compact(lo.Map(values, func(v string, _ int) string {
		return strings.ToLower(strings.TrimSpace(v))
	}))
	return lo.SliceToMap(values, func(v string) (string, bool) {
		return v, true
	})
}
