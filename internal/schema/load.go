package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed registry.schema.json
var registrySchemaJSON string

var registrySchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(registrySchemaJSON))
})

// registryFile is the on-disk registry layout shared by every format:
//
//	datasets:
//	  - id: sections
//	    kind: sections
//	    rows: 64612
type registryFile struct {
	Datasets []Dataset `json:"datasets" yaml:"datasets"`
}

// LoadFile reads a registry file. The format is chosen by extension:
// .yaml, .yml and .json are decoded and checked against the registry JSON
// Schema; .cue is evaluated with CUE and its datasets field decoded.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var f *registryFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err = parseRegistry(data, yaml.Unmarshal)
	case ".json":
		f, err = parseRegistry(data, json.Unmarshal)
	case ".cue":
		f, err = parseCUERegistry(path, data)
	default:
		return nil, fmt.Errorf("unsupported registry file extension %q: use .yaml, .yml, .json or .cue", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m, err := NewMemory(f.Datasets...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseRegistry(data []byte, unmarshal func([]byte, any) error) (*registryFile, error) {
	var raw any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := checkRegistrySchema(raw); err != nil {
		return nil, err
	}

	var f registryFile
	if err := unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return &f, nil
}

func checkRegistrySchema(raw any) error {
	s, err := registrySchema()
	if err != nil {
		return fmt.Errorf("compile registry schema: %w", err)
	}

	// gojsonschema walks the document through encoding/json.
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("registry is not JSON-compatible: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("registry schema validation: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("registry invalid against schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func parseCUERegistry(path string, data []byte) (*registryFile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile CUE registry: %w", err)
	}

	datasets := v.LookupPath(cue.ParsePath("datasets"))
	if !datasets.Exists() {
		return nil, fmt.Errorf("CUE registry has no datasets field")
	}

	var f registryFile
	if err := datasets.Decode(&f.Datasets); err != nil {
		return nil, fmt.Errorf("decode CUE registry: %w", err)
	}
	return &f, nil
}
