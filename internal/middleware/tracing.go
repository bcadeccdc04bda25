package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/biblia/internal/server"
)

// scriptureParams are the path parameters copied onto transactions so
// slow lookups can be grouped by passage.
var scriptureParams = []string{"translationId", "bookId", "chapter", "number", "promiseBoxId"}

type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application // nil when New Relic is off
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{server: s, nrApp: nrApp}
}

func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing annotates the request's transaction with the request id,
// the scripture coordinates in the path, and the final status. Errors are
// noticed with their stack. It must run after NewRelicMiddleware.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			for key, value := range requestAttributes(c) {
				txn.AddAttribute(key, value)
			}

			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}
			txn.AddAttribute("http.status_code", c.Response().Status)
			return err
		}
	}
}

func requestAttributes(c echo.Context) map[string]string {
	attrs := map[string]string{
		"http.real_ip":    c.RealIP(),
		"http.user_agent": c.Request().UserAgent(),
	}
	if id := GetRequestID(c); id != "" {
		attrs["request.id"] = id
	}
	for _, name := range scriptureParams {
		if v := c.Param(name); v != "" {
			attrs["scripture."+name] = v
		}
	}
	return attrs
}
