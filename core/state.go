package core

// State is the snapshot of viewport inputs the render layer feeds the
// engine. All fields are in the render layer's own unit (pixels for a
// DOM-like host, terminal lines for a TUI); the engine never assumes a
// unit.
type State struct {
	ScrollTop      float64 // current scroll offset
	ViewportHeight float64 // visible height of the viewport
	ContainerWidth float64 // container width, used by row packing

	Buffer   int // lookahead/lookbehind item count around the window
	PageSize int // minimum fetch batch size
}

// InitialState returns the default viewport inputs.
func InitialState() State {
	return State{
		ScrollTop:      0,
		ViewportHeight: 0,
		ContainerWidth: 0,
		Buffer:         5,
		PageSize:       20,
	}
}
