package data

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"lotsizing/internal/model"
)

// Format writes in using the default layout.
func Format(w io.Writer, in *model.Instance) error {
	return DefaultParser().Format(w, in)
}

// Format writes in in the instance file layout understood by p, so that
// p.Parse on the output yields an identical instance (the name is not part
// of the file).
func (p Parser) Format(w io.Writer, in *model.Instance) error {
	if err := in.Validate(); err != nil {
		return err
	}
	p = p.withDefaults()
	bw := bufio.NewWriter(w)

	writeRow(bw, float64(in.NProd), float64(in.NPer))
	for i := 0; i < p.SkipLines; i++ {
		bw.WriteString("0\n")
	}
	writeRow(bw, in.Capacity)
	for j := 0; j < in.NProd; j++ {
		writeRow(bw, in.ProdCost[j], in.HoldCost[j], in.SetupTime[j], in.SetupCost[j])
	}
	for base := 0; base < in.NProd; {
		blk := min(p.BlockSize, in.NProd-base)
		row := make([]float64, blk)
		for t := 0; t < in.NPer; t++ {
			for j := 0; j < blk; j++ {
				row[j] = in.Demand[base+j][t]
			}
			writeRow(bw, row...)
		}
		base += blk
	}
	return bw.Flush()
}

// FormatString is Format into a string.
func FormatString(in *model.Instance) (string, error) {
	var sb strings.Builder
	if err := Format(&sb, in); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeRow(w *bufio.Writer, vals ...float64) {
	for i, v := range vals {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	w.WriteByte('\n')
}
