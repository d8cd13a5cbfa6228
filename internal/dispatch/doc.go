// Package dispatch delivers save results to the caller that asked for them.
//
// Results are never sent from the save worker. The Dispatcher posts each
// delivery onto a Context owned by the caller (a UI or main loop, modelled
// by Loop) and the send to the Messenger happens there. If the Context no
// longer accepts work the result is dropped and logged; it is not retried.
//
// On the wire a result is a single string, "requestId|success|path|message".
// Fields are not escaped, so a pipe inside the path makes the string
// ambiguous. Decode assigns every pipe after the third to the message.
package dispatch
