package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// AdminID returns the profile id used for the default admin. An explicit uid
// wins; otherwise the id is derived from the email so reseeding finds the same row.
func AdminID(uid, email string) string {
	if uid != "" {
		return uid
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}

// CreateDefaultAdmin makes sure an active admin profile exists for email.
// An existing profile with that id is promoted to admin if needed.
func CreateDefaultAdmin(ctx context.Context, users repositories.UserRepository, uid, email string, lgr zerolog.Logger) (*models.User, error) {
	if email == "" {
		lgr.Debug().Msg("No admin email configured, skipping default admin")
		return nil, nil
	}

	id := AdminID(uid, email)
	existing, err := users.GetByID(ctx, id)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := users.UpdateRole(ctx, id, models.RoleAdmin); err != nil {
				return nil, err
			}
			existing.Role = models.RoleAdmin
			lgr.Info().Str("userId", id).Msg("Promoted existing profile to admin")
		}
		return existing, nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return nil, err
	}

	admin := &models.User{
		ID:          id,
		Email:       email,
		DisplayName: "Administrator",
		Role:        models.RoleAdmin,
		IsActive:    true,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Warn().Str("email", email).Msg("Admin email belongs to another profile, skipping default admin")
			return nil, nil
		}
		return nil, err
	}

	lgr.Info().Str("userId", id).Str("email", email).Msg("Default admin profile created")
	return admin, nil
}
