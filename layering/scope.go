package layering

import (
	"slices"
	"strings"
)

// ScopeLevel identifies where a set of bindings lives during name
// resolution. Higher levels shadow lower levels.
type ScopeLevel int

const (
	// ScopeLevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	ScopeLevelUnknown ScopeLevel = iota
	// ScopeLevelBuiltin holds names every frame can see (weakest).
	ScopeLevelBuiltin
	// ScopeLevelGlobal holds module-level bindings of the calling context.
	ScopeLevelGlobal
	// ScopeLevelLocal holds the bindings of the inspected frame (strongest).
	ScopeLevelLocal
)

func (l ScopeLevel) String() string {
	switch l {
	case ScopeLevelBuiltin:
		return "builtin"
	case ScopeLevelGlobal:
		return "global"
	case ScopeLevelLocal:
		return "local"
	default:
		return "unknown"
	}
}

// ParseScopeLevel converts a string representation into the corresponding
// ScopeLevel. Returns ScopeLevelUnknown for unrecognised values.
func ParseScopeLevel(value string) ScopeLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "builtin", "builtins":
		return ScopeLevelBuiltin
	case "global", "globals":
		return ScopeLevelGlobal
	case "local", "locals":
		return ScopeLevelLocal
	default:
		return ScopeLevelUnknown
	}
}

// Layer pairs a level with the bindings captured for it.
type Layer struct {
	Level    ScopeLevel
	Bindings map[string]any
}

// ScopeChain describes the resolution order from strongest to weakest.
type ScopeChain struct {
	ordered []Layer
}

// NewScopeChain constructs a chain, dropping layers with an unknown level and
// keeping only the first layer supplied for each level. The resulting order
// always places stronger levels first.
func NewScopeChain(layers ...Layer) ScopeChain {
	filtered := make([]Layer, 0, len(layers))
	seen := map[ScopeLevel]struct{}{}

	for _, layer := range layers {
		if layer.Level == ScopeLevelUnknown {
			continue
		}
		if _, exists := seen[layer.Level]; exists {
			continue
		}
		seen[layer.Level] = struct{}{}
		filtered = append(filtered, layer)
	}

	slices.SortStableFunc(filtered, func(a, b Layer) int {
		return int(b.Level) - int(a.Level)
	})

	return ScopeChain{ordered: filtered}
}

// Ordered returns the layers from strongest (index 0) to weakest.
func (c ScopeChain) Ordered() []Layer {
	out := make([]Layer, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Lookup resolves name against the chain and reports the level that bound it.
func (c ScopeChain) Lookup(name string) (any, ScopeLevel, bool) {
	for _, layer := range c.ordered {
		if value, ok := layer.Bindings[name]; ok {
			return value, layer.Level, true
		}
	}
	return nil, ScopeLevelUnknown, false
}

// Visible flattens the chain into the bindings a frame can see.
func (c ScopeChain) Visible() map[string]any {
	maps := make([]map[string]any, len(c.ordered))
	for i, layer := range c.ordered {
		maps[i] = layer.Bindings
	}
	return Overlay(maps...)
}
