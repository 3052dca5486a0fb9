/*
Package ports defines the driven ports (interfaces) of the CookNet engine.

These interfaces decouple the conversation engine from storage, transport and
persistence, so the same core runs against memory or Redis state and any chat transport.

# Key Interfaces

  - ConversationStore: persists per-identity Conversation state.
  - DebounceStore: atomic check-and-record of last action times.
  - DistributedLocker: cross-replica locking for conversation access.
  - RecipeRepository, UserDirectory, InviteBook, CommentBoard: the relational collaborator.
  - Messenger, PhotoResolver: the chat transport.
*/
package ports
