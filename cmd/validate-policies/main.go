package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/integration-pipeline/policies"
)

/* validate-policies - Standalone CLI tool to validate policies.yaml
 * Usage: go run cmd/validate-policies/main.go [policies.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	policiesFile := "policies.yaml"
	if len(os.Args) > 1 {
		policiesFile = os.Args[1]
	}

	fmt.Printf("Validating policies file: %s\n", policiesFile)
	fmt.Println(strings.Repeat("-", 50))

	loader := policies.NewLoader()
	if err := loader.Load(policiesFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sites := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Effective call sites (%d):\n", len(sites))

	for i, site := range sites {
		backoff := make([]string, 0, len(site.Backoff))
		for _, d := range site.Backoff {
			backoff = append(backoff, d.String())
		}

		fmt.Printf("\n%d. Call site: %s\n", i+1, site.Name)
		fmt.Printf("   Max Attempts: %d\n", site.MaxAttempts)
		fmt.Printf("   Backoff:      %s\n", strings.Join(backoff, ", "))
		fmt.Printf("   Timeout:      %s\n", site.Timeout)
	}

	fmt.Printf("\n✓ All call sites are valid!\n")
	os.Exit(0)
}
