package main

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spdeepak/crm-session-guard/api"
	"github.com/spdeepak/crm-session-guard/internal/error"
	"github.com/spdeepak/crm-session-guard/middleware"
)

func NewRouter(server *Server, swagger *openapi3.T) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.GinLogger())
	router.Use(middleware.MetricHandler())
	router.Use(middleware.ErrorMiddleware)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.RegisterHandlersWithOptions(router, server, api.GinServerOptions{
		Middlewares: []api.MiddlewareFunc{
			api.MiddlewareFunc(middleware.RequestValidator(swagger)),
			api.MiddlewareFunc(middleware.RequireSession(server.evaluator, server.settings.Cookie, server.now, nil)),
		},
		ErrorHandler: func(c *gin.Context, err error, statusCode int) {
			c.Error(httperror.NewWithStatus(httperror.InvalidRequestBody, err.Error(), statusCode))
		},
	})

	// Every other path is a page of the single-page app.
	router.NoRoute(
		middleware.RouteGuard(server.evaluator, server.settings.Cookie, server.now),
		middleware.RequirePermission(server.permissions),
		server.Page,
	)
	return router
}
