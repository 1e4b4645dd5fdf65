// Package viz draws the ball in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: steps a simulator at a fixed frame rate and draws it
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - [NewPicker]: preset menu that launches a Model
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Re-center the ball
//	Arrows or hjkl - Tilt
//	C     - Toggle the compass dial
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
