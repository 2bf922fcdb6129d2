package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"path/filepath"

	"lotsizing/internal/data"
	"lotsizing/internal/model"
)

var (
	products  intListFlag
	periods   intListFlag
	tightness floatListFlag
)

// params bounds the random draws of one instance.
type params struct {
	NProd     int
	NPer      int
	Tightness float64 // capacity relative to the average per-period load
	MaxDemand int
	ZeroShare float64 // probability of a zero demand entry
}

func main() {
	flag.Var(&products, "products", "Number of products (repeatable)")
	flag.Var(&periods, "periods", "Number of periods (repeatable)")
	flag.Var(&tightness, "tightness", "Capacity as a multiple of the average per-period load (repeatable)")
	count := flag.Int("count", 5, "Number of instances per combination")
	outDir := flag.String("out", "instances", "Output directory")
	maxDemand := flag.Int("max-demand", 100, "Upper bound for one demand entry")
	zeroShare := flag.Float64("zero-share", 0.1, "Probability that a demand entry is zero")
	blockSize := flag.Int("block-size", data.DefaultBlockSize, "Products per demand block in the written files")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if len(products) == 0 {
		products = intListFlag{6}
	}
	if len(periods) == 0 {
		periods = intListFlag{15}
	}
	if len(tightness) == 0 {
		tightness = floatListFlag{1.5}
	}

	rng := rand.New(rand.NewSource(*seed))
	parser := data.Parser{BlockSize: *blockSize, SkipLines: data.DefaultSkipLines}

	family := 100
	written := 0
	for _, np := range products {
		for _, nt := range periods {
			for _, a := range tightness {
				family++
				for l := 0; l < *count; l++ {
					p := params{NProd: np, NPer: nt, Tightness: a, MaxDemand: *maxDemand, ZeroShare: *zeroShare}
					name := instanceName(family, l)
					in, err := generate(rng, name, p)
					if err != nil {
						log.Fatalf("Generate: %s: %v", name, err)
					}
					path := filepath.Join(*outDir, name+".txt")
					if err := data.SaveInstance(path, in, parser); err != nil {
						log.Fatalf("Generate: %s: %v", name, err)
					}
					written++
				}
				fmt.Printf("family %03d: %d products, %d periods, tightness %.2f\n", family, np, nt, a)
			}
		}
	}
	fmt.Printf("Wrote %d instance(s) to %s\n", written, *outDir)
}

// instanceName yields X<family><index>, so that the family key X(\d{3})
// groups instances generated with the same parameters.
func instanceName(family, index int) string {
	return fmt.Sprintf("X%03d%02d", family%1000, index%100)
}

func generate(rng *rand.Rand, name string, p params) (*model.Instance, error) {
	if p.NProd < 1 || p.NPer < 1 {
		return nil, fmt.Errorf("products and periods must be >= 1, got %d x %d", p.NProd, p.NPer)
	}
	if p.MaxDemand < 1 {
		p.MaxDemand = 1
	}

	in := model.NewInstance(name, p.NProd, p.NPer, 1)
	load := 0.0
	for j := 0; j < p.NProd; j++ {
		in.ProdCost[j] = float64(1 + rng.Intn(3))
		in.HoldCost[j] = float64(1 + rng.Intn(5))
		in.SetupTime[j] = float64(5 + rng.Intn(46))
		in.SetupCost[j] = float64(20 + rng.Intn(481))
		for t := 0; t < p.NPer; t++ {
			if rng.Float64() < p.ZeroShare {
				continue
			}
			d := float64(1 + rng.Intn(p.MaxDemand))
			in.Demand[j][t] = d
			load += in.ProdCost[j] * d
		}
		load += in.SetupTime[j] * float64(p.NPer) / 2
	}

	capacity := math.Ceil(p.Tightness * load / float64(p.NPer))
	// One period must fit the largest single demand.
	for j := 0; j < p.NProd; j++ {
		for t := 0; t < p.NPer; t++ {
			capacity = math.Max(capacity, in.ProdCost[j]*in.Demand[j][t]+in.SetupTime[j])
		}
	}
	in.Capacity = math.Max(capacity, 1)
	return in, in.Validate()
}
