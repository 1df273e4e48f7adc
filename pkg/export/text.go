package export

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"cohort-repayment/pkg/models"
)

// RenderText affiche la matrice en pourcentages arrondis, "-" pour une cellule manquante.
func RenderText(w io.Writer, title string, m models.Matrix) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}

	var b strings.Builder
	b.WriteString("Cohort\t")
	for _, o := range m.Offsets {
		fmt.Fprintf(&b, "%d\t", o)
	}
	b.WriteString("\n")
	for i, c := range m.Cohorts {
		b.WriteString(c.String())
		b.WriteString("\t")
		for _, v := range m.Values[i] {
			b.WriteString(percent(v))
			b.WriteString("\t")
		}
		b.WriteString("\n")
	}
	if _, err := io.WriteString(tw, b.String()); err != nil {
		return err
	}
	return tw.Flush()
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", v*100)
}
