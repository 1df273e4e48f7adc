package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

/*
LOAD → types simples pour les enregistrements bruts (CSV ou base de données).
*/

// Account représente un compte client, rattaché à un client et à un plan de paiement.
type Account struct {
	AccountID        string
	CustomerID       string
	PaymentPlanID    string
	RegistrationDate time.Time
}

// Customer représente un client et sa région.
type Customer struct {
	CustomerID string
	Region     string
}

// PaymentPlan représente le produit financé et la valeur totale du crédit accordé.
type PaymentPlan struct {
	PaymentPlanID string
	Product       string
	TotalValue    decimal.Decimal
}

// Payment représente un remboursement reçu sur un compte.
type Payment struct {
	PaymentID    string
	AccountID    string
	Amount       decimal.Decimal
	ReceivedWhen time.Time
}

// Dataset regroupe les quatre tables d'entrée d'un calcul.
type Dataset struct {
	Accounts     []Account
	Customers    []Customer
	Payments     []Payment
	PaymentPlans []PaymentPlan
}

// Source charge un Dataset complet (répertoire CSV, MySQL/MariaDB ou PostgreSQL).
type Source interface {
	Load(ctx context.Context) (Dataset, error)
}

/*
JOIN → une ligne dénormalisée par paiement.
*/

// PaymentRecord est un paiement enrichi des attributs du compte, du client et du plan.
type PaymentRecord struct {
	PaymentID        string
	AccountID        string
	Amount           decimal.Decimal
	ReceivedWhen     time.Time
	TotalValue       decimal.Decimal
	Product          string
	Region           string
	RegistrationDate time.Time
	Cohort           Month
	MonthsAfter      int
}

/*
COMPUTE → tables intermédiaires et résultat.
*/

// GroupedRow est une ligne agrégée par (Cohort, MonthsAfter, AccountID, Region, Product).
type GroupedRow struct {
	Cohort      Month
	MonthsAfter int
	AccountID   string
	Region      string
	Product     string
	Amount      decimal.Decimal
	TotalValue  decimal.Decimal
}

// CohortPoint contient les cumuls d'une cohorte à un décalage donné.
type CohortPoint struct {
	Cohort         Month
	MonthsAfter    int
	Amount         decimal.Decimal
	TotalValue     decimal.Decimal
	CumAmount      decimal.Decimal
	CumTotal       decimal.Decimal
	PercentagePaid float64 // NaN si CumTotal est nul.
}

// Result est la sortie complète d'un calcul.
type Result struct {
	RunID     string
	Matrix    Matrix // pourcentage payé, cohortes × mois
	Retention Matrix // Matrix normalisée par la première colonne
	Points    []CohortPoint
	Grouped   []GroupedRow
	Quality   QualityReport
}

/*
CONFIG → paramètres globaux
*/

// Config contient les paramètres passés à la fonction de calcul.
type Config struct {
	FromCohort          Month    // première cohorte incluse (zéro = pas de borne)
	ToCohort            Month    // dernière cohorte incluse (zéro = pas de borne)
	Regions             []string // filtre optionnel (insensible à la casse)
	Products            []string // filtre optionnel (insensible à la casse)
	DropNegativeOffsets bool     // supprime explicitement les paiements antérieurs au mois d'inscription
	Verbose             bool     // Flag pour activer les logs détaillés et la barre de progression.
}
