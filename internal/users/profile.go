// Package users assembles the read-only profile view of a signed-in user and
// serves the endpoints built on top of it.
package users

import (
	"context"
	"fmt"

	"animehub/internal/auth"
	"animehub/internal/library"
	"animehub/internal/progress"
	"animehub/internal/reviews"
	"animehub/pkg/models"
)

type Profiles struct {
	Auth     *auth.Repo
	Library  *library.Repo
	Progress *progress.Repo
	Reviews  *reviews.Repo
}

// Load gathers everything known about a user into one models.User. It returns
// auth.ErrUserNotFound when the account does not exist.
func (p *Profiles) Load(ctx context.Context, userID string) (models.User, error) {
	u, err := p.Auth.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if u == nil {
		return models.User{}, auth.ErrUserNotFound
	}

	out := models.User{ID: u.ID, Name: u.Username, Email: u.Email}

	if out.Watchlist, err = p.Library.WatchlistIDs(ctx, userID); err != nil {
		return models.User{}, fmt.Errorf("profile watchlist: %w", err)
	}
	if out.Favorites, err = p.Library.FavoriteIDs(ctx, userID); err != nil {
		return models.User{}, fmt.Errorf("profile favorites: %w", err)
	}
	if out.WatchHistory, _, err = p.Progress.List(ctx, userID, 0, 0); err != nil {
		return models.User{}, fmt.Errorf("profile history: %w", err)
	}
	if out.Ratings, err = p.Reviews.Ratings(ctx, userID); err != nil {
		return models.User{}, fmt.Errorf("profile ratings: %w", err)
	}
	return out, nil
}
