package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/gatehouse/internal/compiler"
	"github.com/roach88/gatehouse/internal/engine"
)

// LoadError is one problem found while loading a wiring document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line, 0 when unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadWiring reads and compiles a CUE or JSON wiring file.
//
// Errors are collected, never fail-fast: a non-nil result holds every group
// that compiled, with offending slots left inert. A nil result means the
// file could not be read or parsed at all.
func LoadWiring(path string) (*compiler.LoadResult, []*LoadError) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []*LoadError{{Code: ErrCodeNotFound, Message: fmt.Sprintf("wiring file not found: %s", path)}}
	}
	if err != nil {
		return nil, []*LoadError{{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing wiring file: %v", err)}}
	}
	if info.IsDir() {
		return nil, []*LoadError{{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}}
	}
	if !isWiringFile(path) {
		return nil, []*LoadError{{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported wiring format %q: want .cue or .json", filepath.Ext(path))}}
	}

	res, errs := compiler.LoadFile(path)
	out := make([]*LoadError, 0, len(errs))
	for _, err := range errs {
		out = append(out, convertLoadError(err))
	}
	if res == nil && len(out) > 0 {
		for _, e := range out {
			if e.Code == ErrCodeGeneric {
				e.Code = ErrCodeBuildFailed
			}
		}
	}
	return res, out
}

func isWiringFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".json":
		return true
	}
	return false
}

// convertLoadError maps a compiler error to a LoadError. Puzzle errors keep
// their taxonomy code; CUE errors keep their position.
func convertLoadError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	if code, ok := engine.CodeOf(err); ok {
		le.Code = string(code)
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		le.Message = compileErr.Message
		if compileErr.Field != "" {
			le.Message = compileErr.Field + ": " + compileErr.Message
		}
		le.Pos = compileErr.Pos
	}
	return le
}
