// Package registry tracks the remote SD endpoints an instance talks to.
//
// Every remote address referenced by a subscriber, a discovered server or
// a queued message is stored once and reference counted. Each entry also
// carries the per-destination transmit session counter and the receive
// state used to detect a peer reboot. Entries whose last reference was
// released keep that state; the least recently used of them is reclaimed
// when a new address needs a slot.
//
// # Session Counters
//
// The transmit counter starts at 1 and wraps from 0xFFFF back to 1. The
// outgoing reboot flag stays set until the first wrap.
//
// # Reboot Detection
//
// Unicast and multicast traffic from a peer carry independent session
// counters. A reboot is detected on a channel when the incoming message
// has the reboot flag set and either the previous message on that
// channel did not, or the session id did not increase. Detecting a
// reboot resets the other channel so the same reboot is reported once.
package registry
