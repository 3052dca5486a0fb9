/*
Package observability provides Prometheus instrumentation for the CookNet engine.

Metrics cover inbound events, throttling decisions per namespace, FSM transitions,
recipe persistence outcomes and dispatch queue depth. A nil *Metrics is valid and
records nothing, so components can take it as an optional dependency.
*/
package observability
