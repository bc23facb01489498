package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"masterlearn/internal/service"
)

// RouterOptions agrupa la configuracion transversal del router.
type RouterOptions struct {
	CORSOrigins []string
	CookieName  string
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	opts RouterOptions,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	courseH *CourseHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(jsonContentTypeMiddleware())

	r.GET("/health", healthH.Health)
	r.GET("/courses", courseH.ListCourses)

	r.POST("/users", userH.CreateUser)
	r.POST("/login", userH.Login)
	r.POST("/verify-otp", userH.VerifyOTP)
	r.POST("/resend-otp", userH.ResendOTP)

	authed := r.Group("/", JWTAuthMiddleware(jwtSvc, opts.CookieName))
	authed.GET("/profile", userH.Profile)
	authed.POST("/saved-courses", courseH.SaveCourse)
	authed.DELETE("/saved-courses", courseH.UnsaveCourse)
	authed.GET("/saved-courses", courseH.ListSavedCourses)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
