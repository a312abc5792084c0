// Package sd implements the SOME/IP Service Discovery engine.
//
// An Engine drives any number of SD instances. Each instance owns one
// unicast and one multicast SD connection and the services offered and
// consumed over it. The engine is driven by two entry points:
//
//   - Receive is called by the transport for every SD datagram.
//   - Tick is called periodically, once per main function cycle.
//
// Neither blocks on I/O. Transmission happens at the end of Tick; the
// engine lock is released while the transport sends.
//
// # State Machines
//
// Offered services go through NOT_READY, INITIAL_WAIT, REPETITION and
// MAIN. Each offered service owns event handlers that track remote
// subscribers and switch between unicast and multicast delivery.
//
// Consumed services search for servers with Find entries and bind to the
// first acceptable Offer. Each consumed service owns eventgroups that
// subscribe once the service is ready.
//
// # Scheduling
//
// Every entity owns one wake time. An instance keeps a min-heap of wake
// times and runs only the entities whose time has come or that received
// input, in a fixed order: servers, event handlers, clients, eventgroups.
//
// # Collaborators
//
// The engine does not open sockets itself. Transport abstracts the
// connections, ModePublisher receives availability changes and
// DiagnosticSink receives error reports. Mocks for all three live in the
// mocks subpackage.
package sd
