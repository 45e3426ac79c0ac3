package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/jcastel/authbase/internal/auth"
	"github.com/jcastel/authbase/pkg/errors"
	"github.com/jcastel/authbase/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxEmailKey  = "userEmail"
)

// Auth is the request gate: it enforces the presence of a valid bearer
// session token and attaches the decoded claims to the request context.
func Auth(tokens *iauth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrTokenMissing)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := tokens.Validate(token, iauth.PurposeSession)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrTokenInvalid)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxEmailKey, claims.Email)

		c.Next()
	}
}
