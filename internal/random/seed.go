// Package random provides seeding helpers for puzzle generation.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// SeedSource records where a generation seed came from.
type SeedSource string

const (
	SeedSourceConfig SeedSource = "config"
	SeedSourceSystem SeedSource = "system"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed returns the configured seed when one is set, otherwise a
// fresh one from generate.
func ResolveSeed(configured *int64, generate func() (int64, error)) (int64, SeedSource, error) {
	if configured != nil {
		return *configured, SeedSourceConfig, nil
	}
	seed, err := generate()
	if err != nil {
		return 0, "", err
	}
	return seed, SeedSourceSystem, nil
}

// New returns a deterministic generator for seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
