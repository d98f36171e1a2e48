package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	obscontext "github.com/smallbiznis/taskflow/internal/observability/context"
	"github.com/smallbiznis/taskflow/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	HeaderAuthorization = "Authorization"
	contextUserKey      = "auth_user"
)

// AuthRequired verifies the bearer access token and attaches its payload to
// the request.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := s.authsvc.Authenticate(c.Request.Context(), c.GetHeader(HeaderAuthorization))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, payload)
		c.Request = c.Request.WithContext(obscontext.WithUserID(c.Request.Context(), payload.UserID.String()))
		c.Next()
	}
}

func (s *Server) userIDFromContext(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return 0, false
	}
	payload, ok := value.(*authdomain.AccessPayload)
	if !ok || payload == nil || payload.UserID == 0 {
		return 0, false
	}
	return payload.UserID, true
}

// AuthRateLimit throttles a credential endpoint per client address.
func (s *Server) AuthRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		res, err := s.authLimiter.Allow(ctx, endpoint, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("auth rate limit check failed", zap.String("endpoint", endpoint), zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			logger.FromContext(ctx).Warn("auth rate limit exceeded", zap.String("endpoint", endpoint))
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)

			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
