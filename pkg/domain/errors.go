package domain

import "errors"

// ErrConversationNotFound is returned when a store holds no conversation for an identity.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrRecipeNotFound is returned when a recipe ID does not exist.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrInviteNotFound is returned when an invite code is unknown.
var ErrInviteNotFound = errors.New("invite not found")

// ErrUserNotFound is returned when a username is not registered.
var ErrUserNotFound = errors.New("user not found")
