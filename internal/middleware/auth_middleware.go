package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appauth "github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/auth"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
)

// Context keys set by JWTAuth
const (
	CallerKey = "caller"
	UserIDKey = websocket.UserIDKey
	EmailKey  = "email"
)

// AuthMiddleware authenticates requests and resolves the caller's stored profile
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repositories.UserRepository
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repositories.UserRepository, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
		logger:     logger,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message, details string) {
	errorDetail := dto.NewErrorDetail(code, message).
		WithKind(string(apperrors.KindUnauthenticated)).
		WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// tokenFromRequest reads the bearer token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so the token query parameter is accepted too.
// found is false when the request carries no credentials at all.
func tokenFromRequest(c *gin.Context) (token string, found bool, err error) {
	authHeader := strings.Trim(c.GetHeader("Authorization"), "\"'")
	if authHeader == "" {
		if queryToken := c.Query("token"); queryToken != "" {
			return queryToken, true, nil
		}
		return "", false, nil
	}

	token, err = auth.ExtractBearerToken(authHeader)
	return token, true, err
}

// JWTAuth validates the token, then loads the profile it names. The role used by
// the permission gate always comes from the stored profile, never from the token.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found, err := tokenFromRequest(c)
		if !found {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication required", "Authorization header missing")
			return
		}
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Authentication failed", "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			} else if errors.Is(err, auth.ErrInvalidFormat) {
				errorDetails = "Invalid token format"
			}
			abortUnauthorized(c, errorCode, "Authentication failed", errorDetails)
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID())
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication failed", "User profile not found")
				return
			}
			m.logger.Error().Err(err).Str("userId", claims.UserID()).Msg("Failed to resolve caller")
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		if !user.IsActive {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authentication failed", "Account is disabled")
			return
		}

		c.Set(CallerKey, appauth.Caller{ID: user.ID, Role: user.Role})
		c.Set(UserIDKey, user.ID)
		c.Set(EmailKey, user.Email)

		c.Next()
	}
}

// GetCaller returns the caller resolved by JWTAuth. Without it the caller is anonymous.
func GetCaller(c *gin.Context) appauth.Caller {
	if v, ok := c.Get(CallerKey); ok {
		if caller, ok := v.(appauth.Caller); ok {
			return caller
		}
	}
	return appauth.Caller{}
}
