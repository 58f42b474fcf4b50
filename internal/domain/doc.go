// Package domain models the thermal sensing pipeline of a single simulated
// CubeSat watching for wildfires.
//
// # Sensor Model
//
// Each time step the platform images a 64×64 pixel thermal field. Every pixel
// covers GSD×GSD metres on the ground (100 m by default) and holds a surface
// temperature in °C. Background pixels are drawn from a normal distribution
// around a baseline (27 °C, σ = 1). A hot patch may be injected:
//
//	rows 28–35, cols 28–35 (8×8 pixels)  →  +30 °C
//
// # Detection
//
// Two predicates select hot pixels:
//
//	reported anomaly         value > detection threshold (45 °C), inside the
//	                         region of interest [28,36]×[28,36] inclusive
//	trigger-eligible anomaly value > fire threshold (55 °C), anywhere
//
// The region of interest is derived from the hot-patch geometry (one pixel
// of margin on the high side), so moving the patch moves the window with it.
// EligibilityStrategy chooses which of the two sets drives confidence, burn
// area, geolocation and the payout trigger.
//
// # Geolocation
//
// Pixel offsets from the grid centre (32,32) are scaled by GSD into metres
// and converted to degrees with a spherical approximation:
//
//	Δlat = north_m / 111320
//	Δlon = east_m  / (111320 · cos(lat))
//
// Rows grow northward in this convention.
//
// # Payout Trigger
//
// The trigger is a one-shot latch: the first step with a non-empty eligible
// set and confidence ≥ 85 % fires it, and it never fires or resets again for
// the rest of the run.
package domain
