package layout

// The engine itself is unit-agnostic: geometry comes out in whatever unit the
// Metrics provider measures in. This repo's convention is pt everywhere in
// documents and layout; renderers working in mm convert at their boundary.

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)
