// Command validate re-checks a fixture written by genscenario: step
// numbering, confidence and area derivation, the one-shot trigger and the
// geolocated footprint. It exits non-zero if any phase fails.
//
// Usage:
//
//	go run ./cmd/validate -in testdata/scenario_seed42.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/scenario"
)

func main() {
	in := flag.String("in", "", "scenario JSON fixture to validate")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	s, err := scenario.ReadFile(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("scenario: seed=%d steps=%d eligibility=%s\n", s.Seed, len(s.Reports), s.Eligibility)

	failed := 0
	for _, p := range scenario.Validate(s) {
		if p.Passed() {
			fmt.Printf("  PASS  %s\n", p.Name)
			continue
		}
		failed++
		fmt.Printf("  FAIL  %s (%d errors)\n", p.Name, len(p.Errors))
		for _, e := range p.Errors {
			fmt.Printf("        - %s\n", e)
		}
	}

	if failed > 0 {
		fmt.Printf("%d phase(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("all phases passed")
}
