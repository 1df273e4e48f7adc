package models

import (
	"fmt"
	"time"
)

// Month est une clé de cohorte année-mois, comparable et triable via Index.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf tronque une date à son mois calendaire.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Index renvoie year*12 + (month-1) : deux mois consécutifs diffèrent de 1.
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

// IsZero indique un mois non renseigné.
func (m Month) IsZero() bool {
	return m == Month{}
}

// Before indique si m précède o.
func (m Month) Before(o Month) bool {
	return m.Index() < o.Index()
}

// MonthsSince renvoie le nombre de mois calendaires entre from et m (négatif si m précède from).
func (m Month) MonthsSince(from Month) int {
	return m.Index() - from.Index()
}

// String formate le mois en "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseMonth lit un mois au format "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("format attendu YYYY-MM (ex: 2020-05): %w", err)
	}
	return MonthOf(t), nil
}

// MarshalText permet d'utiliser Month comme clé JSON.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText est l'inverse de MarshalText.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
