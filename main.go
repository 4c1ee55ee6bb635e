package main

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"survey_pipeline/internal/analytics"
	"survey_pipeline/internal/app"
	"survey_pipeline/internal/handler"
	"survey_pipeline/internal/insights"
	"survey_pipeline/internal/normalize"
	"survey_pipeline/internal/notify"
	"survey_pipeline/internal/registry"
	"survey_pipeline/internal/sheets"
	"survey_pipeline/internal/storage"
	"survey_pipeline/internal/syncer"
)

func main() {
	app.SetupEnvironment()
	cfg := app.LoadConfig()

	ctx := context.Background()

	db, err := cfg.OpenDB()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	store, err := storage.NewStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	specs := registry.ParseSpecs(cfg.SpreadsheetSpecs)
	if len(specs) == 0 {
		log.Fatal().Msg("No valid spreadsheet specs configured")
	}
	registered := registry.LoadSpreadsheets(ctx, specs, sheetsClient, store)
	log.Info().Int("spreadsheets", len(registered)).Msg("Spreadsheet registry loaded")

	notifier := notify.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyEnabled, cfg.NtfyPriority)
	if cfg.NtfyEnabled {
		log.Info().Str("topic", cfg.NtfyTopic).Msg("Notifications enabled")
	}

	normalizer := normalize.NewNormalizer(store)
	sched := syncer.New(syncer.Config{
		Interval:     cfg.SyncInterval,
		FetchTimeout: cfg.FetchTimeout,
		FetchRetries: cfg.FetchRetries,
	}, sheetsClient, store, normalizer, notifier)

	if cfg.AutoStart {
		sched.Start()
	}

	reader := analytics.NewReader(store)
	insightClient := insights.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	r := buildRouter(sched, reader, insightClient)

	log.Info().Str("addr", cfg.Addr()).Msg("Server starting")
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func buildRouter(sched *syncer.Syncer, reader *analytics.Reader, insightClient *insights.Client) *gin.Engine {
	syncH := handler.NewSyncHandler(sched)
	dashH := handler.NewDashboardHandler(reader, insightClient)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/api/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	r.GET("/api/sync/status", syncH.Status)
	r.POST("/api/sync/start", syncH.Start)
	r.POST("/api/sync/stop", syncH.Stop)
	r.POST("/api/sync/force", syncH.Force)

	r.GET("/api/analytics/overview", dashH.Overview)
	r.GET("/api/analytics/surveys", dashH.Surveys)
	r.GET("/api/analytics/surveys/:id", dashH.SurveyDetail)
	r.GET("/api/analytics/surveys/:id/insight", dashH.SurveyInsight)

	return r
}
