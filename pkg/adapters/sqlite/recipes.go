package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/cooknet/pkg/domain"
)

// CommentLimit is how many comments a single recipe lookup returns.
const CommentLimit = 50

const recipeColumns = `id, username, title, description, photo_id, photo_url, ai_caption, likes, created_at`

// SaveRecipe inserts a draft and returns the new recipe ID.
func (s *Store) SaveRecipe(ctx context.Context, d domain.RecipeDraft) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (username, title, description, photo_id, photo_url, ai_caption, likes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		d.Author, d.Title, d.Description,
		nullable(d.PhotoRef), nullable(d.PhotoURL), nullable(d.Caption),
		s.timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read recipe id: %w", err)
	}
	return id, nil
}

// Recipe returns one recipe with its newest comments.
func (s *Store) Recipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT username, text, created_at FROM comments WHERE recipe_id = ? ORDER BY id DESC LIMIT ?`,
		id, CommentLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := domain.Comment{RecipeID: id}
		var created string
		if err := rows.Scan(&c.Username, &c.Text, &created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.CreatedAt = parseTime(created)
		r.Comments = append(r.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return &r, nil
}

// HasPhoto reports whether any recipe was submitted with the photo reference.
func (s *Store) HasPhoto(ctx context.Context, photoRef string) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM recipes WHERE photo_id = ?)`, photoRef,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to look up photo: %w", err)
	}
	return found, nil
}

// Recipes returns the newest recipes.
func (s *Store) Recipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	return s.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id DESC LIMIT ?`, limit)
}

// TopRecipes returns the most liked recipes, newest first on ties.
func (s *Store) TopRecipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	return s.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY likes DESC, id DESC LIMIT ?`, limit)
}

// RecipesBy returns the newest recipes of one author.
func (s *Store) RecipesBy(ctx context.Context, username string, limit int) ([]domain.Recipe, error) {
	return s.queryRecipes(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE username = ? ORDER BY id DESC LIMIT ?`,
		username, limit,
	)
}

// Like adds one like.
func (s *Store) Like(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE recipes SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to like recipe %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (s *Store) queryRecipes(ctx context.Context, query string, args ...any) ([]domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(sc scanner) (domain.Recipe, error) {
	var (
		r                        domain.Recipe
		photoRef, photoURL, capt sql.NullString
		created                  string
	)
	err := sc.Scan(&r.ID, &r.Author, &r.Title, &r.Description, &photoRef, &photoURL, &capt, &r.Likes, &created)
	if err != nil {
		return domain.Recipe{}, err
	}
	r.PhotoRef = photoRef.String
	r.PhotoURL = photoURL.String
	r.Caption = capt.String
	r.CreatedAt = parseTime(created)
	return r, nil
}
