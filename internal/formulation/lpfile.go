package formulation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const termsPerLine = 6

// WriteLP writes f in CPLEX LP format, readable by CBC, GLPK and HiGHS.
func WriteLP(w io.Writer, f *Formulation) error {
	bw := bufio.NewWriter(w)
	lw := &lpWriter{w: bw, f: f}

	name := f.Name
	if name == "" {
		name = "lotsizing"
	}
	lw.printf("\\ Problem: %s\n", name)
	lw.printf("Minimize\n obj:")
	var obj []Term
	for i, v := range f.Vars {
		if v.Obj != 0 {
			obj = append(obj, Term{Col: i, Coef: v.Obj})
		}
	}
	lw.terms(obj)
	lw.printf("\n")

	lw.printf("Subject To\n")
	for _, c := range f.Constraints {
		lw.printf(" %s:", c.Name)
		lw.terms(c.Terms)
		lw.printf(" %s %s\n", c.Sense, num(c.RHS))
	}

	lw.printf("Bounds\n")
	for _, v := range f.Vars {
		if v.Type == Binary {
			continue
		}
		switch {
		case v.Lower == 0 && isInf(v.Upper):
			// LP default
		case isInf(v.Upper):
			lw.printf(" %s >= %s\n", v.Name, num(v.Lower))
		default:
			lw.printf(" %s <= %s <= %s\n", num(v.Lower), v.Name, num(v.Upper))
		}
	}

	var bins []string
	for _, v := range f.Vars {
		if v.Type == Binary {
			bins = append(bins, v.Name)
		}
	}
	if len(bins) > 0 {
		lw.printf("Binaries\n")
		for i := 0; i < len(bins); i += 10 {
			lw.printf(" %s\n", strings.Join(bins[i:min(i+10, len(bins))], " "))
		}
	}
	lw.printf("End\n")

	if lw.err != nil {
		return lw.err
	}
	return bw.Flush()
}

// WriteLPString renders f as LP text.
func WriteLPString(f *Formulation) (string, error) {
	var sb strings.Builder
	if err := WriteLP(&sb, f); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type lpWriter struct {
	w   *bufio.Writer
	f   *Formulation
	err error
}

func (lw *lpWriter) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

// terms writes " + c name - c name ..." breaking long rows. An empty term
// list is written as a zero multiple of the first column, which every LP
// reader accepts.
func (lw *lpWriter) terms(ts []Term) {
	if len(ts) == 0 {
		if len(lw.f.Vars) > 0 {
			lw.printf(" 0 %s", lw.f.Vars[0].Name)
		}
		return
	}
	for i, t := range ts {
		if i > 0 && i%termsPerLine == 0 {
			lw.printf("\n  ")
		}
		sign, c := "+", t.Coef
		if c < 0 {
			sign, c = "-", -c
		}
		lw.printf(" %s %s %s", sign, num(c), lw.f.Vars[t.Col].Name)
	}
}

func num(x float64) string {
	switch {
	case isInf(x) && x > 0:
		return "inf"
	case isInf(x):
		return "-inf"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
