// Package analysis finds periodic motion in recorded tracks.
//
// A ball rolling back and forth under a steady tilt rhythm shows up as a
// single strong bin:
//
//	peak, err := analysis.Dominant(xs, 60)
//	fmt.Printf("%.2f Hz, period %.2f s\n", peak.Frequency, peak.Period)
package analysis
