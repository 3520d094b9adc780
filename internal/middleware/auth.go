package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/pkg/httpcontext"
)

// SessionIDKey is the fasthttp user value holding the session referenced by the token.
const SessionIDKey = "auth_session_id"

// SessionLookup resolves the session a token refers to.
type SessionLookup interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// JWTAuth verifies the bearer token and, when sessions is set, that the referenced
// session is still alive. On success the user and session IDs are stored as user values.
func JWTAuth(secret string, sessions SessionLookup, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(ctx)
				return
			}
			userID, _ := claims["user_id"].(string)
			sessionID, _ := claims["session_id"].(string)
			if userID == "" {
				unauthorized(ctx)
				return
			}

			if sessions != nil {
				lookupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				session, err := sessions.GetSession(lookupCtx, sessionID)
				cancel()
				if err != nil || session.UserID != userID {
					logger.Warn("session rejected", zap.String("session_id", sessionID), zap.Error(err))
					unauthorized(ctx)
					return
				}
			}

			ctx.SetUserValue(httpcontext.UserIDKey, userID)
			ctx.SetUserValue(SessionIDKey, sessionID)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"status":"error","code":"UNAUTHORIZED","error":"unauthorized"}`)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
