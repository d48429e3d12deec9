package locals

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-locals/internal/hydrate"
)

// Manifest is the JSON form of a module registry:
//
//	{"modules":[{"name":"math","members":{"pi":3.14}}]}
type Manifest struct {
	Modules []ManifestModule `json:"modules"`
}

// ManifestModule lists one module's members.
type ManifestModule struct {
	Name    string         `json:"name"`
	Members map[string]any `json:"members"`
}

var manifestDecoder = hydrate.NewDecoder(
	hydrate.WithDisallowUnknownFields[Manifest](),
	hydrate.WithPostHook[Manifest](validateManifest),
)

// LoadModules hydrates a registry from a decoded JSON manifest. Member values
// keep their JSON types (float64, string, bool, []any, map[string]any), so
// globals compared against them must use the same types.
func LoadModules(payload map[string]any) (*Registry, error) {
	manifest, err := manifestDecoder.Decode(hydrate.Context{Source: "manifest"}, payload)
	if err != nil {
		return nil, fmt.Errorf("locals: load modules: %w", err)
	}
	return manifest.Registry(), nil
}

// LoadModulesJSON is LoadModules for a raw JSON document.
func LoadModulesJSON(raw []byte) (*Registry, error) {
	manifest, err := manifestDecoder.DecodeJSON(hydrate.Context{Source: "manifest"}, raw)
	if err != nil {
		return nil, fmt.Errorf("locals: load modules: %w", err)
	}
	return manifest.Registry(), nil
}

// Registry builds the registry described by the manifest.
func (m Manifest) Registry() *Registry {
	modules := make([]*Module, 0, len(m.Modules))
	for _, entry := range m.Modules {
		modules = append(modules, NewModule(entry.Name, entry.Members))
	}
	return NewRegistry(modules...)
}

func validateManifest(ctx hydrate.Context, manifest *Manifest) error {
	seen := make(map[string]struct{}, len(manifest.Modules))
	for idx, entry := range manifest.Modules {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("module %d has no name", idx)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("module %q listed twice in %s", name, ctx.Source)
		}
		seen[name] = struct{}{}
		manifest.Modules[idx].Name = name
	}
	return nil
}
