package calculator

import (
	"cohort-repayment/pkg/models"
)

// JoinStats compte les enregistrements écartés par la jointure interne.
type JoinStats struct {
	AccountsWithoutCustomer int
	AccountsWithoutPlan     int
	PaymentsWithoutAccount  int
	DuplicateAccounts       int
	DuplicateCustomers      int
	DuplicatePlans          int
}

// Join produit une ligne par paiement dont le compte a un client et un plan.
//
// Jointures internes : Account ⋈ Customer (CustomerID) ⋈ PaymentPlan (PaymentPlanID),
// puis Payment ⋈ résultat (AccountID). L'ordre des paiements est conservé.
// Pour une clé dupliquée, le premier enregistrement est retenu.
func Join(ds models.Dataset) ([]models.PaymentRecord, JoinStats) {
	var stats JoinStats

	customers := make(map[string]models.Customer, len(ds.Customers))
	for _, c := range ds.Customers {
		if _, ok := customers[c.CustomerID]; ok {
			stats.DuplicateCustomers++
			continue
		}
		customers[c.CustomerID] = c
	}

	plans := make(map[string]models.PaymentPlan, len(ds.PaymentPlans))
	for _, p := range ds.PaymentPlans {
		if _, ok := plans[p.PaymentPlanID]; ok {
			stats.DuplicatePlans++
			continue
		}
		plans[p.PaymentPlanID] = p
	}

	type joinedAccount struct {
		account  models.Account
		customer models.Customer
		plan     models.PaymentPlan
	}
	accounts := make(map[string]joinedAccount, len(ds.Accounts))
	seen := make(map[string]struct{}, len(ds.Accounts))
	for _, a := range ds.Accounts {
		if _, ok := seen[a.AccountID]; ok {
			stats.DuplicateAccounts++
			continue
		}
		seen[a.AccountID] = struct{}{}

		c, ok := customers[a.CustomerID]
		if !ok {
			stats.AccountsWithoutCustomer++
			continue
		}
		p, ok := plans[a.PaymentPlanID]
		if !ok {
			stats.AccountsWithoutPlan++
			continue
		}
		accounts[a.AccountID] = joinedAccount{account: a, customer: c, plan: p}
	}

	out := make([]models.PaymentRecord, 0, len(ds.Payments))
	for _, pay := range ds.Payments {
		ja, ok := accounts[pay.AccountID]
		if !ok {
			stats.PaymentsWithoutAccount++
			continue
		}
		out = append(out, models.PaymentRecord{
			PaymentID:        pay.PaymentID,
			AccountID:        pay.AccountID,
			Amount:           pay.Amount,
			ReceivedWhen:     pay.ReceivedWhen,
			TotalValue:       ja.plan.TotalValue,
			Product:          ja.plan.Product,
			Region:           ja.customer.Region,
			RegistrationDate: ja.account.RegistrationDate,
		})
	}
	return out, stats
}
