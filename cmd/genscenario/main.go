// Command genscenario runs the twin on a fake clock above a fixed sub-point
// and writes every step report to a JSON fixture. The same flags always
// produce byte-identical output.
//
// Usage:
//
//	go run ./cmd/genscenario -seed 42 -steps 10 -out testdata/scenario_seed42.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/scenario"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	def := scenario.DefaultParams()

	seed := flag.Uint64("seed", def.Seed, "synthesizer seed")
	steps := flag.Int("steps", def.Steps, "number of simulation steps")
	lat := flag.Float64("lat", def.SubPoint.Lat, "sub-point latitude in degrees")
	lon := flag.Float64("lon", def.SubPoint.Lon, "sub-point longitude in degrees")
	gsd := flag.Float64("gsd", def.GSDMeters, "ground sample distance in metres")
	inject := flag.Float64("inject-probability", def.Synthesizer.InjectProbability, "per-step hot patch probability")
	eligibility := flag.String("eligibility", string(def.Eligibility), "eligibility strategy: windowed or raw")
	out := flag.String("out", "", "output path for the JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	strategy, err := domain.ParseEligibilityStrategy(*eligibility)
	if err != nil {
		return err
	}

	p := def
	p.Seed = *seed
	p.Steps = *steps
	p.SubPoint = domain.SubPoint{Lat: *lat, Lon: *lon}
	p.GSDMeters = *gsd
	p.Synthesizer.InjectProbability = *inject
	p.Eligibility = strategy

	s, err := scenario.Generate(context.Background(), p)
	if err != nil {
		return err
	}
	if err := scenario.WriteFile(*out, s); err != nil {
		return err
	}

	fired := -1
	for _, r := range s.Reports {
		if r.Detection != nil {
			fired = r.Step
		}
	}
	log.Printf("wrote %d steps to %s (detection step: %d)", len(s.Reports), *out, fired)
	return nil
}
