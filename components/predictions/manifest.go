package predictions

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ManifestDocument models a YAML manifest describing prediction definitions.
// Manifests let deployments tune schemas and defaults without a rebuild.
type ManifestDocument struct {
	Version     string       `json:"version" yaml:"version"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Definitions []Definition `json:"definitions" yaml:"definitions"`
	Source      string       `json:"-" yaml:"-"`
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*ManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("predictions: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("predictions: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. Unknown fields are
// rejected so typos surface at load time.
func DecodeManifest(r io.Reader) (*ManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("predictions: manifest is empty")
		}
		return nil, fmt.Errorf("predictions: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *ManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("predictions: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[MetricType]struct{}, len(doc.Definitions))
	for idx, def := range doc.Definitions {
		if def.Type == "" {
			return fmt.Errorf("predictions: manifest definition at index %d is missing type", idx)
		}
		if def.Name == "" {
			return fmt.Errorf("predictions: manifest definition %s missing name", def.Type)
		}
		if _, exists := seen[def.Type]; exists {
			return fmt.Errorf("predictions: manifest duplicates definition type %s", def.Type)
		}
		seen[def.Type] = struct{}{}
	}
	return nil
}

func (doc *ManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}
