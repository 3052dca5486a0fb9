package ports

import (
	"context"

	"github.com/aretw0/cooknet/pkg/domain"
)

// RecipeRepository persists and queries recipes.
type RecipeRepository interface {
	// SaveRecipe stores a completed submission and returns its ID.
	SaveRecipe(ctx context.Context, draft domain.RecipeDraft) (int64, error)

	// Recipe returns one recipe with its newest comments.
	// Returns domain.ErrRecipeNotFound if the ID does not exist.
	Recipe(ctx context.Context, id int64) (*domain.Recipe, error)

	// Recipes returns the newest recipes first.
	Recipes(ctx context.Context, limit int) ([]domain.Recipe, error)

	// TopRecipes returns recipes ordered by likes, newest first on ties.
	TopRecipes(ctx context.Context, limit int) ([]domain.Recipe, error)

	// RecipesBy returns the newest recipes of one author.
	RecipesBy(ctx context.Context, username string, limit int) ([]domain.Recipe, error)

	// Like increments the like counter of a recipe.
	Like(ctx context.Context, id int64) error

	// HasPhoto reports whether a stored recipe uses the photo reference.
	HasPhoto(ctx context.Context, photoRef string) (bool, error)
}

// UserDirectory registers community members.
type UserDirectory interface {
	// RegisterUser records a member on first sight. Registering an existing
	// username is a no-op.
	RegisterUser(ctx context.Context, identity, username, invitedBy string) error

	// Registered reports whether the chat identity is already a member.
	Registered(ctx context.Context, identity string) (bool, error)

	// User returns a member by username.
	// Returns domain.ErrUserNotFound if the username is not registered.
	User(ctx context.Context, username string) (*domain.User, error)
}

// InviteBook issues and redeems invite codes.
type InviteBook interface {
	// InviteFor returns the owner's invite code, creating it on first use.
	InviteFor(ctx context.Context, owner string) (string, error)

	// UseInvite counts a redemption and returns the code owner.
	// Returns domain.ErrInviteNotFound for unknown codes.
	UseInvite(ctx context.Context, code string) (string, error)
}

// CommentBoard stores public comments and site chat messages.
type CommentBoard interface {
	AddComment(ctx context.Context, recipeID int64, username, text string) error
	AddChatMessage(ctx context.Context, username, text string) error
	ChatMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error)
}
