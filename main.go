package main

import (
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stanza/admin"
	"stanza/backoffice"
	"stanza/cache"
	"stanza/common"
	"stanza/database"
	"stanza/site"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := common.ConnectDb(os.Getenv("sqlite_db"), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Fatal("SESSION_SECRET environment variable not set")
	}

	router := gin.Default()

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})
	router.Use(sessions.Sessions("stanza-session", store))

	responseCache := cache.NewStore(5 * time.Minute)
	outbound := common.NewHTTPClient(2 * time.Minute)

	adminModule := admin.NewAdminModule(db, logger, responseCache, outbound)
	adminModule.RegisterRoutes(router)

	backofficeModule := backoffice.NewBackofficeModule(db, logger)
	backofficeModule.RegisterRoutes(router)

	siteModule := site.NewSiteModule(db, logger, responseCache)
	siteModule.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("starting server", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
