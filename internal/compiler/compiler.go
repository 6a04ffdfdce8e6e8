// Package compiler validates scenario documents against an embedded CUE
// schema and compiles CUE-authored scenarios into scenario graphs.
package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

//go:embed schema.cue
var schemaCUE string

// documentName labels YAML input in CUE positions.
const documentName = "scenario.yaml"

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DocumentError collects the validation errors of one scenario file.
type DocumentError struct {
	Path   string
	Errors []scenario.ValidationError
}

func (e *DocumentError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %s", e.Path, e.Errors[0])
	}
	return fmt.Sprintf("%s: %d validation errors, first: %s", e.Path, len(e.Errors), e.Errors[0])
}

// Load reads a scenario file. Files ending in .cue are compiled with
// CompileCUE; anything else is validated as a YAML document and decoded.
// Invalid YAML documents are rejected with a *DocumentError.
func Load(path string) (*scenario.Graph, error) {
	if filepath.Ext(path) == ".cue" {
		return CompileCUE(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if errs := ValidateDocument(data); len(errs) > 0 {
		return nil, &DocumentError{Path: path, Errors: errs}
	}
	g, err := scenario.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

// schema compiles the embedded schema and returns #Scenario.
func schema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Scenario")), nil
}

// ValidateDocument checks a YAML scenario document: first its shape
// against the CUE schema, then the graph rules (identities, jump
// targets, options). Returns all errors found (does not fail-fast).
func ValidateDocument(data []byte) []scenario.ValidationError {
	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return []scenario.ValidationError{{Field: "schema", Message: err.Error(), Code: scenario.ErrSchema}}
	}

	file, err := cueyaml.Extract(documentName, data)
	if err != nil {
		return cueErrors(err)
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return cueErrors(err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return cueErrors(err)
	}

	var doc scenario.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []scenario.ValidationError{{Field: "document", Message: err.Error(), Code: scenario.ErrSchema}}
	}
	if errs := duplicateIDs(doc.Steps); len(errs) > 0 {
		return errs
	}

	g, err := scenario.New(doc.Steps)
	if err != nil {
		return []scenario.ValidationError{{Field: "document", Message: err.Error(), Code: scenario.ErrSchema}}
	}
	return g.Validate()
}

func duplicateIDs(steps []ir.Step) []scenario.ValidationError {
	var errs []scenario.ValidationError
	first := make(map[uuid.UUID]int, len(steps))
	for i, step := range steps {
		if j, ok := first[step.ID]; ok {
			errs = append(errs, scenario.ValidationError{
				Field:   fmt.Sprintf("steps[%d].id", i),
				Message: fmt.Sprintf("id %s already used by steps[%d]", step.ID, j),
				Code:    scenario.ErrDuplicateStepID,
			})
			continue
		}
		first[step.ID] = i
	}
	return errs
}

// CompileCUE compiles a CUE-authored scenario file. The file's regular
// fields must form a #Scenario; hidden fields and definitions may be used
// as helpers. Returns the graph after graph validation.
func CompileCUE(path string) (*scenario.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	ctx := cuecontext.New()
	def, err := schema(ctx)
	if err != nil {
		return nil, err
	}

	v := ctx.CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	out, err := cueyaml.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("compile %s: encode: %w", path, err)
	}
	g, err := scenario.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	if errs := g.Validate(); len(errs) > 0 {
		return nil, &CompileError{Field: errs[0].Field, Message: errs[0].Message}
	}
	return g, nil
}

// cueErrors converts CUE errors into validation errors, one per error,
// with the document line when CUE reports one.
func cueErrors(err error) []scenario.ValidationError {
	var out []scenario.ValidationError
	for _, e := range errors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == "#Scenario" {
			path = path[1:]
		}
		field := strings.Join(path, ".")
		if field == "" {
			field = "document"
		}
		code := scenario.ErrSchema
		if field == "version" {
			code = scenario.ErrVersion
		}
		format, args := e.Msg()
		out = append(out, scenario.ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    documentLine(e),
		})
	}
	if len(out) == 0 {
		out = append(out, scenario.ValidationError{Field: "document", Message: err.Error(), Code: scenario.ErrSchema})
	}
	return out
}

// documentLine returns the first position of e inside the document, or 0.
func documentLine(e errors.Error) int {
	for _, pos := range errors.Positions(e) {
		if pos.Filename() == documentName {
			return pos.Line()
		}
	}
	return 0
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "cue"
	}
	format, args := first.Msg()
	compileErr := &CompileError{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := errors.Positions(first); len(positions) > 0 {
		compileErr.Pos = positions[0]
	}
	return compileErr
}
