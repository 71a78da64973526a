package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/gatehouse/internal/ir"
)

// LoadResult is a compiled wiring document.
type LoadResult struct {
	Table  *ir.WiringTable
	Value  cue.Value // Raw document, for callers that need extra fields
	Source string
	Hash   string // ir.WiringHash of Table
}

// LoadFile reads and compiles a wiring document. CUE and JSON are accepted;
// JSON is compiled as CUE.
//
// Errors are collected, not returned on first failure. A non-nil result
// holds whatever part of the document compiled.
func LoadFile(path string) (*LoadResult, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("read wiring file: %w", err)}
	}
	return LoadBytes(path, data)
}

// LoadBytes compiles a wiring document held in memory. name is used for
// error positions.
func LoadBytes(name string, data []byte) (*LoadResult, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError("document", err)}
	}

	table, errs := CompileWiring(v)
	hash, err := ir.WiringHash(table)
	if err != nil {
		errs = append(errs, fmt.Errorf("hash wiring table: %w", err))
	}

	return &LoadResult{
		Table:  table,
		Value:  v,
		Source: name,
		Hash:   hash,
	}, errs
}
