package models

import "fmt"

// QualityReport recense les anomalies de données rencontrées pendant un calcul.
// Aucune n'interrompt le calcul.
type QualityReport struct {
	AccountsWithoutCustomer int
	AccountsWithoutPlan     int
	PaymentsWithoutAccount  int
	DuplicateAccounts       int
	DuplicateCustomers      int
	DuplicatePlans          int
	FilteredOut             int

	NegativeOffsets        int
	NegativeOffsetPayments []string
	NegativeOffsetsDropped bool

	ZeroTotalBuckets int
}

// Warnings renvoie un message lisible par anomalie non nulle.
func (q QualityReport) Warnings() []string {
	var out []string
	add := func(n int, format string) {
		if n > 0 {
			out = append(out, fmt.Sprintf(format, n))
		}
	}
	add(q.AccountsWithoutCustomer, "%d account(s) dropped: no matching customer")
	add(q.AccountsWithoutPlan, "%d account(s) dropped: no matching payment plan")
	add(q.PaymentsWithoutAccount, "%d payment(s) dropped: no matching account")
	add(q.DuplicateAccounts, "%d duplicate account record(s) ignored")
	add(q.DuplicateCustomers, "%d duplicate customer record(s) ignored")
	add(q.DuplicatePlans, "%d duplicate payment plan record(s) ignored")
	add(q.FilteredOut, "%d payment(s) excluded by region/product filter")
	if q.NegativeOffsets > 0 {
		action := "kept"
		if q.NegativeOffsetsDropped {
			action = "dropped"
		}
		out = append(out, fmt.Sprintf("%d payment(s) received before registration month (%s)", q.NegativeOffsets, action))
	}
	add(q.ZeroTotalBuckets, "%d cohort bucket(s) with zero cumulative total value (percentage missing)")
	return out
}

// Clean indique qu'aucune anomalie n'a été relevée.
func (q QualityReport) Clean() bool {
	return len(q.Warnings()) == 0
}
