package models

import "math"

// Matrix est un tableau cohortes (lignes) × décalages en mois (colonnes).
// Une cellule absente vaut NaN.
type Matrix struct {
	Cohorts []Month
	Offsets []int
	Values  [][]float64
}

// At renvoie la valeur de la cellule (cohorte, décalage), NaN si elle n'existe pas.
func (m Matrix) At(cohort Month, offset int) float64 {
	row := m.row(cohort)
	if row < 0 {
		return math.NaN()
	}
	for j, o := range m.Offsets {
		if o == offset {
			return m.Values[row][j]
		}
	}
	return math.NaN()
}

// Row renvoie la ligne d'une cohorte, nil si absente.
func (m Matrix) Row(cohort Month) []float64 {
	row := m.row(cohort)
	if row < 0 {
		return nil
	}
	return m.Values[row]
}

func (m Matrix) row(cohort Month) int {
	for i, c := range m.Cohorts {
		if c == cohort {
			return i
		}
	}
	return -1
}

// Normalize divise chaque ligne par la valeur de sa première colonne (matrice de rétention).
// Une première colonne NaN ou nulle donne une ligne entièrement NaN.
func (m Matrix) Normalize() Matrix {
	out := Matrix{
		Cohorts: append([]Month(nil), m.Cohorts...),
		Offsets: append([]int(nil), m.Offsets...),
		Values:  make([][]float64, len(m.Values)),
	}
	for i, row := range m.Values {
		norm := make([]float64, len(row))
		base := math.NaN()
		if len(row) > 0 {
			base = row[0]
		}
		for j, v := range row {
			if math.IsNaN(base) || base == 0 {
				norm[j] = math.NaN()
				continue
			}
			norm[j] = v / base
		}
		out.Values[i] = norm
	}
	return out
}
