package shell

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/epsilon-cli/internal/model"
)

// WriteVars lists the session's variable partition.
func WriteVars(w io.Writer, s *model.Session) {
	dep := s.Dependent()
	if dep == "" {
		dep = "(none)"
	}
	fmt.Fprintf(w, "Dependent: %s\n", dep)
	fmt.Fprintf(w, "In model (%d): %s\n", len(s.In()), strings.Join(s.In(), ", "))
	fmt.Fprintf(w, "Candidates (%d): %s\n", len(s.Out()), strings.Join(s.Out(), ", "))
}

// WritePreview prints the ranked preview table followed by its notes.
func WritePreview(w io.Writer, t *model.PreviewTable) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "variable\tcoef\tt\tP>|t|\tadj R²\t")
	for _, r := range t.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", r.Name, num(r.Coefficient, 4), num(r.T, 3), num(r.P, 3), num(r.AdjRSquared, 4))
	}
	tw.Flush()
	for _, n := range t.Notes {
		fmt.Fprintln(w, "⚠", n)
	}
}

// WriteContributions prints each regressor's summed contribution and its
// share of the total.
func WriteContributions(w io.Writer, c *model.Contributions) {
	var total float64
	sums := make([]float64, len(c.Names))
	for k := range c.Names {
		sums[k] = c.Total(k)
		total += sums[k]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "variable\ttotal\tshare %\t")
	for k, n := range c.Names {
		share := math.NaN()
		if total != 0 {
			share = sums[k] / total * 100
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", n, num(sums[k], 2), num(share, 1))
	}
	tw.Flush()
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
