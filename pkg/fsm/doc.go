/*
Package fsm defines the recipe submission state machine.

The machine is linear: Idle -> AwaitingPhoto -> AwaitingTitle -> AwaitingDescription -> Idle.
All functions here are pure: they take a Conversation by value plus an Input and return the
next Conversation and an Outcome describing what the host should do (reply, persist).
Expiry, throttling and locking are the caller's job.
*/
package fsm
