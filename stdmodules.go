package locals

import (
	"math"
	"strconv"
	"strings"
)

// StandardModules returns a registry of a few standard library packages
// expressed as member sets. Members keep the names they are exported under,
// so a debugger that flattens a package into a frame's globals sees them
// dropped from the locals view.
func StandardModules() *Registry {
	return NewRegistry(
		NewModule("math", map[string]any{
			"Pi":    math.Pi,
			"E":     math.E,
			"Abs":   math.Abs,
			"Ceil":  math.Ceil,
			"Floor": math.Floor,
			"Max":   math.Max,
			"Min":   math.Min,
			"Pow":   math.Pow,
			"Sqrt":  math.Sqrt,
		}),
		NewModule("strconv", map[string]any{
			"IntSize":   strconv.IntSize,
			"Atoi":      strconv.Atoi,
			"FormatInt": strconv.FormatInt,
			"Itoa":      strconv.Itoa,
			"Quote":     strconv.Quote,
		}),
		NewModule("strings", map[string]any{
			"Contains":  strings.Contains,
			"HasPrefix": strings.HasPrefix,
			"HasSuffix": strings.HasSuffix,
			"Join":      strings.Join,
			"Split":     strings.Split,
			"ToLower":   strings.ToLower,
			"ToUpper":   strings.ToUpper,
			"TrimSpace": strings.TrimSpace,
		}),
	)
}
