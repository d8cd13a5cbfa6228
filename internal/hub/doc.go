// Package hub delivers callback messages to websocket subscribers.
//
// A client connects to the results endpoint with a target name and receives
// every message sent to that target as a JSON text frame:
//
//	{"method":"OnMediaSaved","payload":"7|true|gallery://images/3|Success"}
//
// Several clients may subscribe to one target; each gets a copy. A client
// whose send buffer is full is disconnected rather than allowed to block
// delivery to the others.
package hub
