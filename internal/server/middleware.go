// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/truthfinder/internal/identity"
	"github.com/pdiddy/truthfinder/pkg/types"
)

const (
	requestIDHeader = "X-Request-ID"
	identityKey     = "identity"
	sessionTokenKey = "session_token"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Header(requestIDHeader, reqID)
		c.Next()
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		reqID, _ := c.Get(requestIDHeader)
		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"request_id": reqID,
		}).Info("request")
	}
}

func recovery(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				reqID, _ := c.Get(requestIDHeader)
				log.WithFields(logrus.Fields{
					"panic":      err,
					"path":       c.Request.URL.Path,
					"request_id": reqID,
				}).Error("panic")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// session resolves the session cookie to an identity, issuing a new cookie
// when none is present.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.cookieName)
		if err != nil || token == "" {
			token = identity.NewToken()
		}

		id, err := s.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			s.log.WithError(err).Error("session resolution failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Code: "SESSION_UNAVAILABLE", Message: "session unavailable"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.cookieName, token, int(s.cookieTTL.Seconds()), "/", "", s.secure, true)
		c.Set(identityKey, id)
		c.Set(sessionTokenKey, token)
		c.Next()
	}
}

func identityFrom(c *gin.Context) types.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(types.Identity)
	return id
}
