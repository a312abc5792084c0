// Package timer implements the millisecond timestamps used for every
// deadline in the SD engine.
//
// A Stamp is a point on the engine's monotonic clock split into seconds
// and milliseconds. Two sentinel values exist:
//
//   - Invalid marks a timer that is not armed. It sorts after everything.
//   - Infinite marks a deadline that never elapses, used for entries
//     announced with the maximum TTL. It sorts after every real stamp.
//
// Arithmetic saturates instead of wrapping, so a deadline never moves
// into the past because of overflow.
package timer
