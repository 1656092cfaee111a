package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entrena/coach-app/internal/api"
	"entrena/coach-app/internal/config"
	"entrena/coach-app/internal/logger"
	"entrena/coach-app/internal/repository/mongo"
	"entrena/coach-app/internal/service"
	"entrena/coach-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logger ---
	zlog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer zlog.Sync()
	zlog.Info("Starting coach-app server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		zlog.Fatalw("Could not connect to MongoDB", "error", err)
	}
	defer func() {
		zlog.Info("Disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			zlog.Errorw("Failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	zlog.Info("Database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("plans"))
		mongo.EnsureModuleIndexes(ctx, appDB.Collection("modules"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureSetIndexes(ctx, appDB.Collection("sets"))
		mongo.EnsureLibraryIndexes(ctx, appDB)
		zlog.Info("Index creation process completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, zlog)
	if err != nil {
		zlog.Fatalw("Failed to initialize S3 storage", "error", err)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	moduleRepo := mongo.NewMongoModuleRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	setRepo := mongo.NewMongoSetRepository(appDB)
	overrideRepo := mongo.NewMongoOverrideRepository(appDB)
	libraryRepo := mongo.NewMongoLibraryRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	programService := service.NewProgramService(userRepo, programRepo, planRepo, moduleRepo, sessionRepo, exerciseRepo, setRepo, overrideRepo, libraryRepo, fileStorage, zlog)
	planService := service.NewPlanService(planRepo, moduleRepo, sessionRepo, exerciseRepo, setRepo, overrideRepo, zlog)
	libraryService := service.NewLibraryService(libraryRepo, fileStorage, zlog)
	enrollmentService := service.NewEnrollmentService(userRepo, programRepo)

	// --- Initialize Gin Engine ---
	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, programService, planService, libraryService, enrollmentService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	zlog.Infow("Server starting", "address", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("ListenAndServe error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		zlog.Fatalw("Server forced to shutdown", "error", err)
	}

	zlog.Info("Server exiting")
}
