package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legalport/internal/domain"
)

const (
	authorizationHeader = "Authorization"
	principalCtx        = "principal"
)

func (h *Handler) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := h.logger.With(
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		)

		if status >= 500 {
			logger.Error("server error")
		} else if status >= 400 {
			logger.Warn("client error")
		} else {
			logger.Info("request processed")
		}
	}
}

func (h *Handler) errorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			h.logger.Error("request error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
	}
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Content-Length, Accept-Encoding, Origin, Accept, X-Requested-With, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		origin := c.Request.Header.Get("Origin")
		if origin != "" && c.Request.Header.Get(authorizationHeader) != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			errorResponse(c, http.StatusUnauthorized, "empty authorization header")
			return
		}

		headerParts := strings.Split(header, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
			errorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		principal, err := h.services.Auth.ParseToken(c.Request.Context(), headerParts[1])
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				errorResponse(c, http.StatusUnauthorized, domain.ErrTokenExpired.Error())
				return
			}
			errorResponse(c, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			return
		}

		c.Set(principalCtx, principal)

		c.Next()
	}
}

func (h *Handler) roleMiddleware(role domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := getPrincipal(c)
		if err != nil {
			unauthorizedResponse(c)
			return
		}

		if principal.Role != role {
			forbiddenResponse(c, "access denied, "+string(role)+" role required")
			return
		}

		c.Next()
	}
}

func (h *Handler) lawyerMiddleware() gin.HandlerFunc {
	return h.roleMiddleware(domain.UserRoleLawyer)
}

func (h *Handler) clientMiddleware() gin.HandlerFunc {
	return h.roleMiddleware(domain.UserRoleClient)
}

func getPrincipal(c *gin.Context) (*domain.Principal, error) {
	value, exists := c.Get(principalCtx)
	if !exists {
		return nil, errors.New("user is not authenticated")
	}

	principal, ok := value.(*domain.Principal)
	if !ok || principal == nil || principal.ID == "" {
		return nil, errors.New("invalid principal")
	}

	return principal, nil
}
