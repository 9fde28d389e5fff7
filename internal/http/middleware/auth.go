package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-lessons/internal/http/response"
	"github.com/yungbote/neurobridge-lessons/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

const DefaultUserHeader = "X-User-Id"

// AuthMiddleware trusts the identity an upstream authorizer has already
// verified and forwarded in a request header.
type AuthMiddleware struct {
	log    *logger.Logger
	header string
}

func NewAuthMiddleware(log *logger.Logger, header string) *AuthMiddleware {
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultUserHeader
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), header: header}
}

func (am *AuthMiddleware) Header() string { return am.header }

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(am.header))
		if userID == "" {
			am.log.Debug("request without trusted identity", "path", c.Request.URL.Path)
			response.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user")
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
