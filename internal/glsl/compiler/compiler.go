// Package compiler wires the GLSL front end and both backends together:
// lex -> parse -> sema.Check -> irbuild.Build (twice per user function, one
// copy per backend) -> q32.Transform -> codegen.Compile for the rvexec path,
// with the untransformed copies of the ssa.Functions kept for the hostexec
// path. Every call to Compile is tagged
// with a fresh google/uuid so callers (the project runtime's shader nodes)
// can tell apart two builds of the same source after a hot-reload without
// diffing bytes.
package compiler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lightplayer/lightplayer/internal/glsl/ast"
	"github.com/lightplayer/lightplayer/internal/glsl/codegen"
	"github.com/lightplayer/lightplayer/internal/glsl/diag"
	"github.com/lightplayer/lightplayer/internal/glsl/irbuild"
	"github.com/lightplayer/lightplayer/internal/glsl/parser"
	"github.com/lightplayer/lightplayer/internal/glsl/q32"
	"github.com/lightplayer/lightplayer/internal/glsl/sema"
	"github.com/lightplayer/lightplayer/internal/glsl/ssa"
	"github.com/lightplayer/lightplayer/internal/glsl/token"
	"github.com/lightplayer/lightplayer/internal/glsl/types"
)

// Build is one successful compile of a GLSL source string: the checked
// signatures both backends type-check Call* against, the pre-transform SSA
// hostexec interprets directly, the linked object rvexec hosts, and enough
// diagnostic context to render a trap back to source.
type Build struct {
	ID uuid.UUID

	Source string
	Locs   *diag.SourceLocManager
	Sigs   []types.FunctionSignature

	// Functions is the untransformed SSA irbuild produced, one per user
	// function, in source order. hostexec.New consumes this directly.
	Functions []*ssa.Function

	// Object is the result of running q32.Transform over a copy of each
	// function (the abstract Q16.16 opcodes rewritten to __lp_q32_* calls)
	// and linking through codegen.Compile. rvexec.New consumes this.
	Object *codegen.Object
}

// Compile runs the full front end plus both backends' lowering over src,
// a GLSL translation unit. filename is used only to label diagnostics.
func Compile(filename, src string) (*Build, error) {
	toks, err := token.NewLexer(src).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("compiler: lex %s: %w", filename, err)
	}

	file, err := parser.New(toks).Parse()
	if err != nil {
		return nil, fmt.Errorf("compiler: parse %s: %w", filename, err)
	}

	checked, err := sema.Check(file, src)
	if err != nil {
		return nil, fmt.Errorf("compiler: check %s: %w", filename, err)
	}

	hostFuncs, rvFuncs, err := buildFunctions(checked, file)
	if err != nil {
		return nil, fmt.Errorf("compiler: %s: %w", filename, err)
	}

	obj, err := codegen.Compile(rvFuncs)
	if err != nil {
		return nil, fmt.Errorf("compiler: codegen %s: %w", filename, err)
	}

	sigs := make([]types.FunctionSignature, 0, len(checked.Sigs))
	for _, fn := range file.Functions {
		sigs = append(sigs, checked.Sigs[fn.Name])
	}

	return &Build{
		ID:        uuid.New(),
		Source:    src,
		Locs:      checked.Locs,
		Sigs:      sigs,
		Functions: hostFuncs,
		Object:    obj,
	}, nil
}

// buildFunctions runs irbuild once per ast.Function, returning the
// untransformed functions (for hostexec) and an independent,
// q32.Transform'd copy of each (for codegen/rvexec) — independent because
// Transform rewrites a Function's instructions in place and the two
// backends must not observe each other's rewrite.
func buildFunctions(checked *sema.Checked, file *ast.File) (host, rv []*ssa.Function, err error) {
	host = make([]*ssa.Function, 0, len(file.Functions))
	rv = make([]*ssa.Function, 0, len(file.Functions))
	for _, fn := range file.Functions {
		f, err := irbuild.Build(checked, fn)
		if err != nil {
			return nil, nil, fmt.Errorf("irbuild %s: %w", fn.Name, err)
		}
		host = append(host, f)

		transformed, err := irbuild.Build(checked, fn)
		if err != nil {
			return nil, nil, fmt.Errorf("irbuild %s: %w", fn.Name, err)
		}
		q32.Transform(transformed)
		rv = append(rv, transformed)
	}
	return host, rv, nil
}
