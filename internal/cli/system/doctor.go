package system

import (
	"fmt"
	"time"

	"probeword/internal/cli"
	"probeword/internal/keyring"
	"probeword/internal/models"
)

// DoctorCmd runs health checks against the configured store and policy.
type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := false

	// Check 1: store reachable
	if err := ctx.Store.Load(); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Store reachable: OK (%s)\n", ctx.Store.Describe())
		storeReachable = true
	}

	// Check 2: header/columns in place (only if the store is reachable)
	if storeReachable {
		if err := ctx.Store.Init(ctx.Header()); err != nil {
			fmt.Printf("❌ Canonical header: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Canonical header: OK (%d columns)\n", len(ctx.Header()))
		}
	} else {
		fmt.Printf("⊘ Canonical header: SKIPPED (store not reachable)\n")
	}

	// Check 3: experiment policy
	if err := ctx.Config.Validate(); err != nil {
		fmt.Printf("❌ Experiment policy: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Experiment policy: OK\n")
	}

	// Check 4: question set
	if err := models.ValidateQuestions(ctx.Questions); err != nil {
		fmt.Printf("❌ Question set: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Question set: OK (%d questions)\n", len(ctx.Questions))
	}

	// Check 5: OS keyring (warning only; only the remote store needs it)
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⚠ OS keyring: WARNING\n")
		fmt.Printf("   keyring unavailable - remote store credentials must come from the environment\n")
	}

	// Check 6: clock sanity (timestamps go into every row)
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		fmt.Printf("❌ Clock: FAIL\n")
		fmt.Printf("   system time appears incorrect: %s\n", now.Format(time.RFC3339))
		hasError = true
	} else {
		fmt.Printf("✓ Clock: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}
