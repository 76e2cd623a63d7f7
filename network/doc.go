// Package network owns the peer channel between the two clients of a
// match. It implements the connection lifecycle state machine and a
// websocket session that carries communication.Message values as a
// single reliable, ordered stream.
//
// # Roles
//
// The host listens and accepts exactly one peer; the guest dials the
// host. After the upgrade both sides are symmetric: one read loop
// delivers inbound messages to a channel, one write loop drains an
// outbound channel so the connection only ever has a single writer.
//
// # Lifecycle
//
// Tracker models the status machine:
//
//	disconnected -> initializing -> waiting | connecting -> connected
//	connected -> disconnected (timestamped, on transport loss)
//	any handshake step -> error (terminal for that attempt)
//
// Loss of the transport never terminates the process; the application
// observes the transition and may start a fresh attempt.
package network
