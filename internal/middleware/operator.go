package middleware

import (
	"crypto/subtle"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// OperatorKey is the fasthttp user value set once the operator token was accepted.
const OperatorKey = "auth_operator"

// OperatorHeader carries the operator token on requests to run-control routes.
const OperatorHeader = "X-Operator-Token"

// OperatorAuth admits requests presenting the configured operator token. An empty
// token disables the guarded routes entirely.
func OperatorAuth(token string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			presented := ctx.Request.Header.Peek(OperatorHeader)
			if token == "" || subtle.ConstantTimeCompare(presented, []byte(token)) != 1 {
				logger.Warn("operator token rejected",
					zap.String("path", string(ctx.Path())),
					zap.Bool("configured", token != ""))
				forbidden(ctx)
				return
			}
			ctx.SetUserValue(OperatorKey, true)
			next(ctx)
		}
	}
}

func forbidden(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusForbidden)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"status":"error","code":"FORBIDDEN","error":"forbidden"}`)
}
