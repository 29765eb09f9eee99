package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/config"
	"github.com/storelens/advisor/database"
	admctrl "github.com/storelens/advisor/internal/controller/admin"
	sfctrl "github.com/storelens/advisor/internal/controller/storefront"
	"github.com/storelens/advisor/internal/logger"
	"github.com/storelens/advisor/internal/middleware"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
	"github.com/storelens/advisor/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Advisor API
// @version 1.0
// @description Quiz-driven product recommendation engine: rule-weighted scoring, session recording and funnel analytics.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewQuizRepository,
			repository.NewRuleRepository,
			repository.NewSessionRepository,
			repository.NewCatalogRepository,
			repository.NewOrderRepository,
		),

		// Services
		fx.Provide(
			service.NewScoringService,
			func(sessionRepo repository.SessionRepository, cfg *config.Config) service.SessionRecorder {
				return service.NewSessionRecorder(sessionRepo, cfg.Advisor.RecorderQueueSize)
			},
			service.NewAdvisorService,
			service.NewRuleService,
			service.NewAnalyticsService,
			service.NewQuizAdminService,
		),

		// Controllers
		fx.Provide(
			sfctrl.NewAdvisorController,
			admctrl.NewRuleController,
			admctrl.NewAnalyticsController,
			admctrl.NewQuizController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartSessionRecorder),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the API routes and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	advisorCtrl *sfctrl.AdvisorController,
	ruleCtrl *admctrl.RuleController,
	analyticsCtrl *admctrl.AnalyticsController,
	quizCtrl *admctrl.QuizController,
) {
	// Public storefront routes
	storefrontGroup := router.Group("/api/v1/advisor")
	{
		storefrontGroup.POST("/calculate", advisorCtrl.Calculate)
		storefrontGroup.GET("/quizzes/:quiz_id", advisorCtrl.GetQuiz)
		storefrontGroup.POST("/quizzes/:quiz_id/start", advisorCtrl.StartQuiz)
		storefrontGroup.POST("/sessions/:session_id/conversion", advisorCtrl.RecordConversion)
	}

	// Operator routes, tenant-scoped by the store JWT
	adminGroup := router.Group("/api/v1/admin/advisor")
	adminGroup.Use(middleware.StoreAuth([]byte(cfg.JWTSecret)))
	{
		adminGroup.GET("/rules", ruleCtrl.ListRules)
		adminGroup.POST("/rules", ruleCtrl.UpsertRule)
		adminGroup.DELETE("/rules", ruleCtrl.DeleteRule)

		adminGroup.GET("/analytics", analyticsCtrl.GetAnalytics)

		adminGroup.POST("/quizzes", quizCtrl.CreateQuiz)
		adminGroup.GET("/quizzes", quizCtrl.ListQuizzes)
		adminGroup.PATCH("/quizzes/:quiz_id/active", quizCtrl.SetQuizActive)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Advisor API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// StartSessionRecorder ties the async recorder worker to the app lifecycle
// so queued session records are drained on shutdown.
func StartSessionRecorder(lc fx.Lifecycle, recorder service.SessionRecorder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			recorder.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return recorder.Stop(ctx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations for advisor models...")
	err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Answer{},
		&model.ProductRule{},
		&model.QuizSession{},
		&model.Product{},
		&model.Order{},
		&model.OrderLineItem{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
