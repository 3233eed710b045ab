package shared

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"forest-backend/internal/core"
)

const seedFlag = "seed"

// EngineArgs builds the command line the worker starts the engine plugin
// with.
func EngineArgs(seed int64) []string {
	return []string{"-" + seedFlag, strconv.FormatInt(seed, 10)}
}

// ParseEngineArgs reads the plugin command line. Without -seed the seed
// comes from ENGINE_SEED, then core.DefaultSeed.
func ParseEngineArgs(args []string) (int64, error) {
	seed := int64(core.DefaultSeed)
	if raw := os.Getenv("ENGINE_SEED"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ENGINE_SEED '%s': %w", raw, err)
		}
		seed = parsed
	}

	fs := flag.NewFlagSet("engine", flag.ContinueOnError)
	fs.Int64Var(&seed, seedFlag, seed, "random seed for bootstrap sampling and feature selection")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	return seed, nil
}
