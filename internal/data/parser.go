package data

import (
	"fmt"
	"math"
	"strings"

	"lotsizing/internal/model"
)

const (
	// DefaultBlockSize is the number of products the legacy layout packs
	// side by side in the demand section.
	DefaultBlockSize = 15
	// DefaultSkipLines is the number of reserved lines between the header and
	// the capacity line.
	DefaultSkipLines = 1
)

// Parser reads the free-format instance text. A zero BlockSize selects
// DefaultBlockSize; SkipLines is taken as given, so use DefaultParser for the
// legacy layout.
type Parser struct {
	BlockSize int
	SkipLines int
}

// DefaultParser returns a parser for the legacy layout.
func DefaultParser() Parser {
	return Parser{BlockSize: DefaultBlockSize, SkipLines: DefaultSkipLines}
}

// Parsed is the outcome of a successful parse.
type Parsed struct {
	Instance *model.Instance
	// Warnings flag layout oddities that did not prevent parsing, e.g. a
	// demand section that looks like it uses another block width.
	Warnings []string
}

// Parse parses text with the default parser.
func Parse(text string) (*model.Instance, error) {
	p, err := DefaultParser().Parse(text)
	if err != nil {
		return nil, err
	}
	return p.Instance, nil
}

type textLine struct {
	no   int
	text string
}

// cursor walks the non-blank lines of an instance text in order.
type cursor struct {
	lines []textLine
	pos   int
}

func newCursor(text string) *cursor {
	c := &cursor{}
	for i, raw := range strings.Split(text, "\n") {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		c.lines = append(c.lines, textLine{no: i + 1, text: s})
	}
	return c
}

func (c *cursor) next() (textLine, bool) {
	if c.pos >= len(c.lines) {
		return textLine{}, false
	}
	ln := c.lines[c.pos]
	c.pos++
	return ln, true
}

func (c *cursor) remaining() int { return len(c.lines) - c.pos }

func (p Parser) withDefaults() Parser {
	if p.BlockSize <= 0 {
		p.BlockSize = DefaultBlockSize
	}
	if p.SkipLines < 0 {
		p.SkipLines = 0
	}
	return p
}

// Parse runs the stage machine header → skip → capacity → products → demand
// over the non-blank lines of text.
func (p Parser) Parse(text string) (*Parsed, error) {
	p = p.withDefaults()
	cur := newCursor(text)

	nProd, nPer, err := parseHeader(cur)
	if err != nil {
		return nil, err
	}

	for i := 0; i < p.SkipLines; i++ {
		if _, ok := cur.next(); !ok {
			return nil, malformed(ReasonCapacity, 0, "text ends before the capacity line")
		}
	}

	ln, ok := cur.next()
	if !ok {
		return nil, malformed(ReasonCapacity, 0, "text ends before the capacity line")
	}
	capNums := Numbers(ln.text)
	if len(capNums) == 0 {
		return nil, malformed(ReasonCapacity, ln.no, "no numeric token on capacity line %q", ln.text)
	}

	if cur.remaining() < nProd {
		return nil, malformed(ReasonProduct, 0, "expected %d product lines, only %d lines left", nProd, cur.remaining())
	}
	in := model.NewInstance("", nProd, 0, capNums[0])
	for j := 0; j < nProd; j++ {
		ln, _ := cur.next()
		nums := Numbers(ln.text)
		if len(nums) < 4 {
			return nil, malformed(ReasonProduct, ln.no, "product %d line has %d numeric tokens, want 4", j, len(nums))
		}
		in.ProdCost[j] = nums[0]
		in.HoldCost[j] = nums[1]
		in.SetupTime[j] = nums[2]
		in.SetupCost[j] = nums[3]
	}

	if nPer > math.MaxInt32/nProd {
		return nil, malformed(ReasonHeader, 0, "n_prod*n_per overflows (%d x %d)", nProd, nPer)
	}
	need := nProd * nPer
	vals, firstWidth, surplus := readDemand(cur, need)
	if len(vals) < need {
		return nil, malformed(ReasonDemandTruncated, 0, "demand section has %d values, want %d", len(vals), need)
	}

	in.NPer = nPer
	fillDemand(in, vals, p.BlockSize)

	var warnings []string
	if want := min(p.BlockSize, nProd); firstWidth != want {
		warnings = append(warnings, fmt.Sprintf(
			"first demand line has %d values, block layout expects %d; the file may use a different block size", firstWidth, want))
	}
	if surplus > 0 {
		warnings = append(warnings, fmt.Sprintf("%d numeric tokens after the demand section were ignored", surplus))
	}

	if err := in.Validate(); err != nil {
		return nil, &MalformedInstanceError{Reason: ReasonInvalid, Msg: err.Error(), Err: err}
	}
	return &Parsed{Instance: in, Warnings: warnings}, nil
}

func parseHeader(cur *cursor) (nProd, nPer int, err error) {
	ln, ok := cur.next()
	if !ok {
		return 0, 0, malformed(ReasonHeader, 0, "empty instance text")
	}
	nums := Numbers(ln.text)
	if len(nums) < 2 {
		return 0, 0, malformed(ReasonHeader, ln.no, "want 2 numeric tokens (n_prod n_per), got %d", len(nums))
	}
	for _, v := range nums[:2] {
		if math.IsNaN(v) || v < 1 || v > math.MaxInt32 {
			return 0, 0, malformed(ReasonHeader, ln.no, "n_prod and n_per must be >= 1, got %v %v", nums[0], nums[1])
		}
	}
	return int(nums[0]), int(nums[1]), nil
}

// readDemand collects numeric tokens line by line until need values are
// available. It also reports the token count of the first demand line and how
// many tokens were left unread.
func readDemand(cur *cursor, need int) (vals []float64, firstWidth, surplus int) {
	firstWidth = -1
	vals = make([]float64, 0, min(need, 4096))
	for len(vals) < need {
		ln, ok := cur.next()
		if !ok {
			break
		}
		toks := Numbers(ln.text)
		if firstWidth < 0 {
			firstWidth = len(toks)
		}
		vals = append(vals, toks...)
	}
	if len(vals) > need {
		surplus = len(vals) - need
		vals = vals[:need]
	}
	for {
		ln, ok := cur.next()
		if !ok {
			break
		}
		surplus += len(Numbers(ln.text))
	}
	return vals, firstWidth, surplus
}

// fillDemand assigns the flat value sequence to in.Demand following the
// legacy block layout: products are taken blockSize at a time; within a
// block, periods are outer and products inner.
func fillDemand(in *model.Instance, vals []float64, blockSize int) {
	for j := range in.Demand {
		in.Demand[j] = make([]float64, in.NPer)
	}
	idx := 0
	for base := 0; base < in.NProd; {
		blk := min(blockSize, in.NProd-base)
		for t := 0; t < in.NPer; t++ {
			for j := 0; j < blk; j++ {
				in.Demand[base+j][t] = vals[idx]
				idx++
			}
		}
		base += blk
	}
}
