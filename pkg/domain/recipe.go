package domain

import "time"

// PhotoPath is the site route serving recipe photos, followed by the photo reference.
const PhotoPath = "/photo/"

// RecipeDraft is a completed submission, consumed immediately by persistence.
type RecipeDraft struct {
	Author      string
	Title       string
	Description string
	PhotoRef    string
	PhotoURL    string
	Caption     string
}

// Recipe is a persisted recipe.
type Recipe struct {
	ID          int64
	Author      string
	Title       string
	Description string
	PhotoRef    string
	PhotoURL    string
	Caption     string
	Likes       int
	CreatedAt   time.Time

	// Comments is only populated by single-recipe lookups.
	Comments []Comment
}

// Summary is the text shown under a recipe card: the caption, or the description.
func (r Recipe) Summary() string {
	if r.Caption != "" {
		return r.Caption
	}
	return r.Description
}

// Comment is a public comment on a recipe.
type Comment struct {
	RecipeID  int64
	Username  string
	Text      string
	CreatedAt time.Time
}

// ChatMessage is a message in the public site chat.
type ChatMessage struct {
	Username  string
	Text      string
	CreatedAt time.Time
}

// User is a registered community member.
type User struct {
	Identity  string
	Username  string
	JoinedAt  time.Time
	InvitedBy string
}
