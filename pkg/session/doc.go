/*
Package session holds per-identity conversation state and serializes access to it.

The Manager combines a ports.ConversationStore with a reference-counted map of
per-identity mutexes (and an optional distributed locker), so that transitions for one
identity are applied atomically while different identities proceed in parallel.
Expiry of abandoned conversations is checked lazily when a conversation is next read
inside a lock; there is no background sweep.
*/
package session
