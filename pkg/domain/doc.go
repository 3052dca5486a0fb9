/*
Package domain contains the core domain models of CookNet.

It defines the conversation state carried per user while a recipe is being submitted,
the normalized inbound events and outbound responses exchanged with the chat transport,
and the recipe records handed to persistence. This package is kept pure and free of
external dependencies like I/O or persistence.

# Key Entities

  - Conversation: the per-identity submission state (Phase, Collected, StartedAt).
  - Event: a transport-neutral inbound event (command, text, photo, callback).
  - Response: everything the host should send back for one event.
  - RecipeDraft: the assembled submission handed to the repository.
*/
package domain
