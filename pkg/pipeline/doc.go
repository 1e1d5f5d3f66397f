// Package pipeline wires template lookup, composition, responsive overrides,
// validation, theme resolution and rendering behind a single entry point.
package pipeline
