package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trayectoria-service/handlers"
	"trayectoria-service/middleware"
	"trayectoria-service/models"
	"trayectoria-service/services"
	"trayectoria-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Entity{},
		&models.ScoreRecord{},
		&models.ScoreHistoryEntry{},
		&models.BadgeDefinition{},
		&models.BadgeAward{},
		&models.StageScore{},
		&models.StageRating{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
		&models.Vote{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedBadgeCatalog(db); err != nil {
		log.Fatal("failed to seed badge catalog:", err)
	}

	var notifier services.BadgeNotifier = services.LogNotifier{}
	if notifyURL := os.Getenv("NOTIFICATION_SERVICE_URL"); notifyURL != "" {
		notifier = services.NewHTTPNotifier(notifyURL)
	}

	reader := services.NewDBMetricReader(db)
	badgeService := services.NewBadgeService(db, reader, notifier)
	scoreService := services.NewScoreService(db, badgeService)
	stageService := services.NewStageService(db)
	entityService := services.NewEntityService(db, scoreService, stageService, badgeService)
	challengeService := services.NewChallengeService(db)
	leaderboardService := services.NewLeaderboardService(db)

	// --- CONFIGURE accounts service details for entity sync ---
	accountsServiceURL := os.Getenv("ACCOUNTS_SERVICE_URL")
	if accountsServiceURL == "" {
		log.Fatal("ACCOUNTS_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("TRAYECTORIA_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("TRAYECTORIA_SERVICE_TOKEN environment variable not set")
	}
	// --- END CONFIG ---

	syncWorker := workers.NewEntitySyncWorker(entityService, accountsServiceURL, "/api/v1/public/accounts", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Entity Sync Worker...")
		syncWorker.Start(ctx)
	}()

	challengeService.StartChallengeScheduler()

	// ✅ Setup routes — gateway auth enforced globally
	handlers.SetupTrayectoriaRoutes(app, entityService, scoreService, stageService, badgeService)
	handlers.SetupChallengeRoutes(app, challengeService, leaderboardService, entityService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Entity Sync Worker running")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
