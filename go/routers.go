package marketserver

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Authenticated routes require a bearer token.
	Authenticated bool
}

// ApiHandleFunctions groups the handlers of every API section.
type ApiHandleFunctions struct {
	AuthAPI    AuthAPI
	UserAPI    UserAPI
	ListingAPI ListingAPI
	OrderAPI   OrderAPI
}

type routerConfig struct {
	authenticator Authenticator
	limiter       *ClientRateLimiter
	gzipLevel     int
	middlewares   []gin.HandlerFunc
}

// RouterOption customises NewRouter.
type RouterOption func(*routerConfig)

// WithAuthenticator resolves bearer tokens for authenticated routes.
func WithAuthenticator(authenticator Authenticator) RouterOption {
	return func(cfg *routerConfig) { cfg.authenticator = authenticator }
}

// WithRateLimiter throttles every route per client.
func WithRateLimiter(limiter *ClientRateLimiter) RouterOption {
	return func(cfg *routerConfig) { cfg.limiter = limiter }
}

// WithGzip compresses responses at the given level.
func WithGzip(level int) RouterOption {
	return func(cfg *routerConfig) { cfg.gzipLevel = level }
}

// WithMiddleware installs middleware ahead of everything else, e.g. tracing.
func WithMiddleware(middlewares ...gin.HandlerFunc) RouterOption {
	return func(cfg *routerConfig) { cfg.middlewares = append(cfg.middlewares, middlewares...) }
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions, opts ...RouterOption) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions, opts...)
}

// NewRouterWithGinEngine adds the API routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, opts ...RouterOption) *gin.Engine {
	registerValidators()

	cfg := routerConfig{gzipLevel: gzip.NoCompression}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	router.Use(cfg.middlewares...)
	if cfg.gzipLevel != gzip.NoCompression {
		router.Use(gzip.Gzip(cfg.gzipLevel))
	}
	if cfg.limiter != nil {
		router.Use(cfg.limiter.Middleware())
	}

	requireIdentity := RequireIdentity(cfg.authenticator)
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		chain := []gin.HandlerFunc{route.HandlerFunc}
		if route.Authenticated {
			chain = []gin.HandlerFunc{requireIdentity, route.HandlerFunc}
		}
		router.Handle(route.Method, route.Pattern, chain...)
	}
	return router
}

// DefaultHandleFunc is the default handler for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{Name: "Healthz", Method: http.MethodGet, Pattern: "/healthz", HandlerFunc: healthz},

		{Name: "Register", Method: http.MethodPost, Pattern: "/api/auth/register", HandlerFunc: handleFunctions.AuthAPI.Register},
		{Name: "Login", Method: http.MethodPost, Pattern: "/api/auth/login", HandlerFunc: handleFunctions.AuthAPI.Login},
		{Name: "Logout", Method: http.MethodPost, Pattern: "/api/auth/logout", HandlerFunc: handleFunctions.AuthAPI.Logout, Authenticated: true},

		{Name: "GetUser", Method: http.MethodGet, Pattern: "/api/users/:userId", HandlerFunc: handleFunctions.UserAPI.GetUser, Authenticated: true},
		{Name: "DeleteUser", Method: http.MethodDelete, Pattern: "/api/users/:userId", HandlerFunc: handleFunctions.UserAPI.DeleteUser, Authenticated: true},

		{Name: "CreateListing", Method: http.MethodPost, Pattern: "/api/listings", HandlerFunc: handleFunctions.ListingAPI.CreateListing, Authenticated: true},
		{Name: "ListListings", Method: http.MethodGet, Pattern: "/api/listings", HandlerFunc: handleFunctions.ListingAPI.ListListings},
		{Name: "GetListing", Method: http.MethodGet, Pattern: "/api/listings/:listingId", HandlerFunc: handleFunctions.ListingAPI.GetListing},
		{Name: "DeleteListing", Method: http.MethodDelete, Pattern: "/api/listings/:listingId", HandlerFunc: handleFunctions.ListingAPI.DeleteListing, Authenticated: true},

		{Name: "PlaceOrder", Method: http.MethodPost, Pattern: "/api/orders", HandlerFunc: handleFunctions.OrderAPI.PlaceOrder, Authenticated: true},
		{Name: "ListOrders", Method: http.MethodGet, Pattern: "/api/orders", HandlerFunc: handleFunctions.OrderAPI.ListOrders, Authenticated: true},
		{Name: "GetOrder", Method: http.MethodGet, Pattern: "/api/orders/:orderId", HandlerFunc: handleFunctions.OrderAPI.GetOrder, Authenticated: true},
		{Name: "UpdateOrderStatus", Method: http.MethodPatch, Pattern: "/api/orders/:orderId/status", HandlerFunc: handleFunctions.OrderAPI.UpdateOrderStatus, Authenticated: true},
		{Name: "DeleteOrder", Method: http.MethodDelete, Pattern: "/api/orders/:orderId", HandlerFunc: handleFunctions.OrderAPI.DeleteOrder, Authenticated: true},
	}
}
