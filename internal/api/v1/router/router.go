package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pushnotify/internal/api/v1/handler"
	"pushnotify/internal/config"
	"pushnotify/internal/middleware"
	"pushnotify/internal/model"
	"pushnotify/internal/pubsub"
	"pushnotify/internal/repository"
	"pushnotify/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the pipeline and returns the HTTP handler plus a cleanup func
// that releases the database and GCP clients.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("Cleanup failed")
			}
		}
	}

	// 1. Load the Firebase service account
	cred, err := loadServiceAccount(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("client_email", cred.ClientEmail).Str("project_id", cred.ProjectID).Msg("Service account loaded")

	// 2. Open DB connection (connection pooling)
	db, err := repository.Open(ctx, cfg.DBConnectionString, cfg.Environment, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, db.Close)

	// 3. Initialize Pub/Sub publisher for outcome records
	var publisher pubsub.Publisher
	if cfg.PubSubOutcomeTopic != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GetGCPProjectID(cred))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, p.Close)
		publisher = p
		logger.Info().Str("topic", cfg.PubSubOutcomeTopic).Msg("Publishing push outcomes")
	}

	// 4. Initialize repositories & services & handlers
	profileRepo := repository.NewProfileRepo(db)
	offerRepo := repository.NewOfferRepo(db)

	validate := validator.New(validator.WithRequiredStructEnabled())
	notificationSvc := service.NewNotificationService(
		service.NewPayloadValidator(validate),
		service.NewRecipientResolver(profileRepo, offerRepo, logger),
		service.NewCredentialExchanger(cfg.GoogleTokenURL, cfg.FCMScope, logger),
		service.NewPushDispatcher(cfg.FCMBaseURL, logger),
		publisher,
		service.NotificationOptions{
			Credential:        *cred,
			OfferContactTitle: cfg.OfferContactTitle,
			OutcomeTopic:      cfg.PubSubOutcomeTopic,
		},
		logger,
	)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, time.Duration(cfg.RequestTimeoutSec)*time.Second, logger)

	// 5. Initialize middleware
	authMiddleware := middleware.WebhookAuthMiddleware(cfg.WebhookJWTSecret, cfg.WebhookRequiredRole, logger)
	if cfg.WebhookJWTSecret == "" {
		logger.Warn().Msg("WEBHOOK_JWT_SECRET not set; notification endpoints accept unauthenticated calls")
	}

	// 6. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	notificationHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/health", handler.Health)

	// 7. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.InvocationIDHeader},
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), cleanup, nil
}

// loadServiceAccount reads the service account key from the environment or,
// when SERVICE_ACCOUNT_SECRET is set, from Secret Manager.
func loadServiceAccount(ctx context.Context, cfg *config.Config) (*model.ServiceAccountCredential, error) {
	if strings.TrimSpace(cfg.ServiceAccountSecret) == "" {
		return config.ParseServiceAccount([]byte(cfg.ServiceAccountJSON))
	}

	secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, err
	}
	defer secrets.Close()

	raw, err := secrets.AccessSecret(ctx, cfg.ServiceAccountSecret)
	if err != nil {
		return nil, fmt.Errorf("reading service account secret: %w", err)
	}
	return config.ParseServiceAccount(raw)
}
