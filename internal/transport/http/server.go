package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "usersvc/internal/app"
	"usersvc/internal/bootstrap"
	"usersvc/internal/cache"
	"usersvc/internal/platform/rabbitmq"
	"usersvc/internal/repository"
	"usersvc/internal/transport/http/handler"
	"usersvc/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)

	var userCache appsvc.UserCache
	if app.Redis != nil {
		ttl := time.Duration(app.Config.Redis.UserCacheTTLSeconds) * time.Second
		userCache = cache.NewUserCache(app.Redis, ttl)
	}

	var publisher appsvc.EventPublisher
	if app.MQConn != nil {
		publisher = rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.UserEventQueue)
	}

	authService := appsvc.NewAuthService(
		userRepo,
		userCache,
		publisher,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	userService := appsvc.NewUserService(userRepo, userCache, publisher)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	router.POST("/register/", authHandler.Register)
	router.POST("/token", authHandler.Token)

	users := router.Group("/users")
	users.GET("/me", authRequired, authHandler.Me)
	if app.Config.Auth.ProtectUserRoutes {
		users.Use(authRequired)
	}
	users.GET("/", userHandler.List)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	return router
}
