package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tagus/trailhound/pkg/sources/archive"
	"github.com/tagus/trailhound/pkg/sources/breach"
	"github.com/tagus/trailhound/pkg/sources/enrich"
)

// CatalogEntry declares one source in a deployment's catalog file.
type CatalogEntry struct {
	// Name overrides nothing; it documents the entry
	Name string `yaml:"name"`

	// Kind selects the client implementation ("breach", "enrich", "archive")
	Kind string `yaml:"kind"`

	// BaseURL is the API endpoint
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// Catalog is the YAML-declared set of sources an investigation fans out
// across.
type Catalog struct {
	Sources []CatalogEntry `yaml:"sources"`
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source catalog: %w", err)
	}

	catalog := &Catalog{}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse source catalog: %w", err)
	}
	return catalog, nil
}

// Build constructs the declared clients and registers them.
func (c *Catalog) Build(registry *Registry) error {
	for _, entry := range c.Sources {
		apiKey := ""
		if entry.APIKeyEnv != "" {
			apiKey = os.Getenv(entry.APIKeyEnv)
		}

		switch entry.Kind {
		case "breach":
			registry.Register(breach.New(apiKey, entry.BaseURL))
		case "enrich":
			registry.Register(enrich.New(apiKey, entry.BaseURL))
		case "archive":
			registry.Register(archive.New(entry.BaseURL))
		default:
			return fmt.Errorf("unknown source kind %q in catalog entry %q", entry.Kind, entry.Name)
		}
	}
	return nil
}
