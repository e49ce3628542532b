// internal/catalog/file.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"homebuyer-workers/internal/eligibility"
)

// FileSource reads a JSON or YAML catalog document.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Load reads, schema-checks and decodes the document. ctx is unused; reads
// are local.
func (s *FileSource) Load(_ context.Context) (*eligibility.Catalog, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw, filepath.Ext(s.path))
}

// Parse decodes a catalog document. ext selects the format: ".json",
// ".yaml" or ".yml".
func Parse(raw []byte, ext string) (*eligibility.Catalog, error) {
	unmarshal, err := decoderFor(ext)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	result, err := schema.Validate(generic)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	var doc document
	if err := unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return eligibility.NewCatalog(doc.Programs)
}

func decoderFor(ext string) (func([]byte, interface{}) error, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return json.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
}
