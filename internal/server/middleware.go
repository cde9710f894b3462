package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agileflow/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	claimsKey       = "claims"
)

// requestID tags every request with an id, keeping one supplied by the client.
// The access line carries the caller's user id once a token was verified.
func (s *Server) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)

	start := time.Now()
	c.Next()

	attrs := []slog.Attr{
		slog.String("request_id", id),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("latency", time.Since(start)),
	}
	if claims := claimsFrom(c); claims != nil {
		if userID, err := claims.UserID(); err == nil {
			attrs = append(attrs, slog.Int64("user_id", userID))
		}
	}
	s.logger.LogAttrs(c.Request.Context(), slog.LevelDebug, "request handled", attrs...)
}

// claimsFrom returns the claims stored by requireToken, or nil.
func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func (s *Server) cors(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", s.opts.CORSOrigin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)
	h.Set("Access-Control-Expose-Headers", requestIDHeader)
	h.Add("Vary", "Origin")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		s.respondError(c, errUnauthorized)
		c.Abort()
		return
	}
	claims, err := s.svc.Tokens.Verify(strings.TrimSpace(raw))
	if err != nil {
		s.respondError(c, err)
		c.Abort()
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}
