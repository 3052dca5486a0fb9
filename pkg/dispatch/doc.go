/*
Package dispatch turns inbound chat events into serialized, isolated state transitions.

Bridge.OnEvent is the synchronous entry point: it registers the sender, routes fixed
commands and callbacks, and drives the submission state machine under the sender's
session lock. Queue is the asynchronous hand-off used by the webhook: events are sharded
by identity over a fixed set of workers, so one identity's events are processed in
arrival order while different identities progress in parallel.
*/
package dispatch
