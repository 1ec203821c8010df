package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed run_report.schema.json
var schemaData []byte

const schemaURL = "run_report.schema.json"

var (
	runReportSchema *jsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal run report schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add run report schema resource: %w", err)
			return
		}

		runReportSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			compileErr = fmt.Errorf("compile run report schema: %w", err)
		}
	})
	return compileErr
}

// Validate checks raw report JSON against the run report schema. Unknown
// properties are accepted.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := runReportSchema.Validate(doc); err != nil {
		return fmt.Errorf("run report validation failed: %w", err)
	}
	return nil
}
