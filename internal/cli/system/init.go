package system

import (
	"fmt"
	"os"

	"probeword/internal/cli"
	"probeword/internal/sink"
)

// InitCmd initializes the configured results store: creates the file or
// table and puts the canonical header in place. On a non-empty store this
// only reconciles the header.
type InitCmd struct {
	Force bool `help:"Delete an existing local store before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		switch ctx.Store.(type) {
		case *sink.CSVStore, *sink.SQLiteStore:
			path := ctx.Store.Describe()
			if _, err := os.Stat(path); err == nil {
				if err := ctx.Store.Close(); err != nil {
					return fmt.Errorf("failed to close existing store: %w", err)
				}
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("failed to delete existing store: %w", err)
				}
				fmt.Printf("Deleted existing store at: %s\n", path)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to access existing store: %w", err)
			}
		default:
			return fmt.Errorf("--force only applies to local stores")
		}
	}

	if err := ctx.Store.Init(ctx.Header()); err != nil {
		return err
	}
	fmt.Printf("Initialized results store at: %s (%d columns)\n", ctx.Store.Describe(), len(ctx.Header()))
	return nil
}
