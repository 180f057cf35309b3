package design

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a CUE design file and decodes it into a Spec.
//
// The file is unified with the embedded schema, so partial files are fine:
// omitted fields take the baseline defaults. Schema violations (wrong types,
// out-of-range ratios) surface here; cross-field constraints are the
// caller's job via Spec.Validate.
func Load(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read design file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes CUE design source against the embedded schema.
// The filename is used for error positions only.
func Parse(data []byte, filename string) (Spec, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a programming
		// error, not a user error.
		return Spec{}, fmt.Errorf("internal design schema: %w", err)
	}
	designDef := schema.LookupPath(cue.ParsePath("#Design"))
	if err := designDef.Err(); err != nil {
		return Spec{}, fmt.Errorf("internal design schema: %w", err)
	}

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return Spec{}, fmt.Errorf("parse %s:\n%s", filename, cueerrors.Details(err, nil))
	}

	unified := designDef.Unify(file)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return Spec{}, fmt.Errorf("design file %s does not satisfy the schema:\n%s",
			filename, cueerrors.Details(err, nil))
	}

	var spec Spec
	if err := unified.Decode(&spec); err != nil {
		return Spec{}, fmt.Errorf("decode design file %s: %w", filename, err)
	}
	return spec, nil
}
