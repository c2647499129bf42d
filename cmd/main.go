package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/survey-collector/config"
	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/routes"
	"github.com/vnkhanh/survey-collector/services"
	"github.com/vnkhanh/survey-collector/utils"
)

func main() {
	log := utils.Logger

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	utils.SetLogLevel(log, cfg.LogLevel)

	// DB + AutoMigrate
	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database")
	}

	rdb, err := config.ConnectRedis(context.Background(), cfg)
	if err != nil {
		// the schema cache is optional
		log.WithError(err).Warn("redis unavailable, schema cache disabled")
		rdb = nil
	}

	var store services.QuestionStore = services.NewGormQuestionStore(db)
	if rdb != nil {
		store = services.NewRedisQuestionCache(store, rdb, cfg.SchemaCacheTTL, log)
	}
	schemas := services.NewSchemaLoader(store)
	analytics := services.NewAnalyticsAggregator(db)
	submissions := services.NewSubmissionService(db, schemas, services.SubmissionOptions{
		Location: cfg.Location,
		Timeout:  cfg.SubmitTimeout,
		Logger:   log,
		Counters: analytics,
	})
	exporter := services.NewExporter(db, schemas, cfg.ExportDir, log)

	deps := routes.Deps{
		DB:             db,
		Redis:          rdb,
		Issuer:         utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Schemas:        schemas,
		Submissions:    submissions,
		Analytics:      analytics,
		Reporter:       services.NewReporter(db, schemas),
		Exporter:       exporter,
		GoogleClientID: cfg.GoogleClientID,
		CreateLimiter:  middleware.NewSurveyCreateLimiter(),
		SubmitLimiter:  middleware.NewSubmissionLimiter(),
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		deps.Storage = utils.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	} else {
		log.Warn("SUPABASE_URL/SUPABASE_KEY not set, uploads disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderEditToken},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Survey server is running")
	})

	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}

	routes.SetupRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	}

	deps.CreateLimiter.Stop()
	deps.SubmitLimiter.Stop()
	exporter.Wait()

	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
