package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tutorcal/tutorcal-api/internal/models"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
	"github.com/tutorcal/tutorcal-api/pkg/response"
)

// ContextViewerKey is the gin context key storing the authenticated viewer.
const ContextViewerKey = "currentViewer"

// JWT protects routes by requiring a valid bearer token signed with the
// shared HMAC secret.
func JWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		viewer, err := parseToken(parts[1], secret)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextViewerKey, viewer)
		c.Next()
	}
}

func parseToken(token, secret string) (models.Viewer, error) {
	claims := &models.ViewerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Viewer{}, err
	}
	if !parsed.Valid {
		return models.Viewer{}, fmt.Errorf("token is not valid")
	}
	return claims.Viewer(), nil
}

// CurrentViewer extracts the authenticated viewer from the gin context.
func CurrentViewer(c *gin.Context) (models.Viewer, bool) {
	value, exists := c.Get(ContextViewerKey)
	if !exists {
		return models.Viewer{}, false
	}
	viewer, ok := value.(models.Viewer)
	return viewer, ok
}
