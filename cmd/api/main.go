package main

import (
	"context"
	"log"

	_ "pos-backend/api/swagger" // swagger docs
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/handler"
	"pos-backend/internal/middleware"
	"pos-backend/internal/repository"
	"pos-backend/internal/service"
	"pos-backend/internal/session"
	"pos-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Point-of-Sale API
// @version         1.0
// @description     Single-location point-of-sale backend: catalog, sales ledger and role-based access control.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	dsn := cfg.DBPath
	if cfg.DBDriver == "postgres" {
		dsn = cfg.DSN()
	}

	db, err := database.NewConnection(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Printf("Connected to %s store.", cfg.DBDriver)

	if err := service.NewSeeder(db).Seed(context.Background()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// Sale-event feed
	hub := websocket.NewHub()
	go hub.Run()

	// Session registry (login/logout lifecycle, navigation state)
	sessions := session.NewManager()

	// Repository -> Service -> Handler
	txm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	productRepo := repository.NewProductRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo, roleRepo, txm)
	roleService := service.NewRoleService(roleRepo, userRepo, moduleRepo, txm)
	moduleService := service.NewModuleService(moduleRepo, roleRepo)
	navService := service.NewNavigationService(moduleService, sessions)
	saleService := service.NewSaleService(productRepo, txRepo, txm, hub)

	authMW := middleware.NewAuth([]byte(cfg.JWTSecret), sessions, roleRepo, cfg.CookieSecure)

	authHandler := handler.NewAuthHandler(authService, roleService, moduleService, navService, sessions, authMW, []byte(cfg.JWTSecret))
	userHandler := handler.NewUserHandler(userService, authMW)
	roleHandler := handler.NewRoleHandler(roleService, authMW)
	moduleHandler := handler.NewModuleHandler(moduleService, authMW)
	productHandler := handler.NewProductHandler(saleService, authMW)
	saleHandler := handler.NewSaleHandler(saleService, authMW)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(hub, sessions, c, []byte(cfg.JWTSecret))
	})

	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	moduleHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
