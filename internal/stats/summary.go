package stats

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
)

// Summary renders the parameter table and fit statistics as text.
func (r *Result) Summary() string {
	var b strings.Builder
	title := strings.ToUpper(r.Estimator) + " Regression Results"
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", 72))

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Dep. Variable:\t%s\tNo. Observations:\t%d\n", r.Response, r.NObs)
	fmt.Fprintf(tw, "R-squared:\t%s\tDf Residuals:\t%s\n", num(r.RSquared, 4), num(r.DFResid, 0))
	fmt.Fprintf(tw, "Adj. R-squared:\t%s\tLog-Likelihood:\t%s\n", num(r.AdjRSquared, 4), num(r.LogLik, 2))
	fmt.Fprintf(tw, "AIC:\t%s\tBIC:\t%s\n", num(r.AIC, 2), num(r.BIC, 2))
	switch r.Estimator {
	case RLM:
		fmt.Fprintf(tw, "Norm:\tHuberT\tScale:\t%s\n", num(r.Scale, 4))
		fmt.Fprintf(tw, "Iterations:\t%d\tCov. Type:\tH1\n", r.Iterations)
	case VAR:
		fmt.Fprintf(tw, "Lag order:\t%d\t\t\n", r.Skip)
	}
	tw.Flush()

	stat := "t"
	if r.Estimator == RLM {
		stat = "z"
	}
	b.WriteString(strings.Repeat("-", 72))
	b.WriteString("\n")
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\tcoef\tstd err\t%s\tP>|%s|\t\n", stat, stat)
	for _, c := range r.Coefficients() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", c.Name, num(c.Value, 4), num(c.StdErr, 4), num(c.T, 3), num(c.P, 3))
	}
	tw.Flush()
	b.WriteString(strings.Repeat("=", 72))
	b.WriteString("\n")
	fmt.Fprintf(&b, "run %s\n", r.ID)
	return b.String()
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
