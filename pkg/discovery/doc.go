// Package discovery mirrors offered SOME/IP services into DNS-SD.
//
// A Mirror is an sd.ModePublisher. Every server that becomes available is
// registered over mDNS as an instance of _someip._udp; it is withdrawn when
// the server goes down. TXT records identify the service:
//
//	sid  service id, hexadecimal ("0x1234")
//	iid  instance id, hexadecimal
//	maj  major version, decimal
//	min  minor version, decimal
//
// Registration runs on a worker goroutine because mDNS announcements
// block, and mode changes are published with the engine lock held.
package discovery
