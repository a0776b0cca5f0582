package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/api"
	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/cron"
	"github.com/paperdesk/paperdesk/internal/database"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/repository"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/services/ai"
	"github.com/paperdesk/paperdesk/services/attachments"
	"github.com/paperdesk/paperdesk/services/dispatcher"
	"github.com/paperdesk/paperdesk/services/gmail"
	"github.com/paperdesk/paperdesk/services/imapmail"
	"github.com/paperdesk/paperdesk/services/lifecycle"
	"github.com/paperdesk/paperdesk/services/notify"
	"github.com/paperdesk/paperdesk/services/poller"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	cfg *config.Config
	log logger.Logger
}

func NewServer(cfg *config.Config, log logger.Logger) *Server {
	return &Server{cfg: cfg, log: log}
}

func (s *Server) Start(parentCtx context.Context) error {
	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer, closer, err := tracing.NewJaegerTracer(s.cfg.Tracing, s.log)
	if err != nil {
		return errors.Wrap(err, "failed to initialize jaeger tracer")
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	db, err := database.InitDatabase(s.cfg.DatabaseConfig)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	repositories := repository.InitRepositories(db)

	store, err := s.initAttachmentStore()
	if err != nil {
		return err
	}

	var mirror *notify.AMQPMirror
	if s.cfg.AppConfig.RabbitMQURL != "" {
		mirror, err = notify.NewAMQPMirror(s.cfg.AppConfig.RabbitMQURL, s.log)
		if err != nil {
			return errors.Wrap(err, "failed to connect to rabbitmq")
		}
		defer mirror.Close()
	}
	notifier := notify.NewNotifier(0, mirror, s.log)

	aiService := ai.NewAIService(s.cfg.LLMConfig, s.log)
	lifecycleService := lifecycle.NewLifecycleService(repositories.DocumentRepository, s.cfg.AppConfig.DueSoonDays, s.log)

	dispatcherService := dispatcher.NewDispatcher(
		aiService,
		store,
		repositories.DocumentRepository,
		notifier,
		strings.Split(s.cfg.LLMConfig.ProfileFields, ","),
		time.Duration(s.cfg.LLMConfig.TimeoutSeconds)*time.Second,
		s.log,
	)

	mailPoller, err := s.initPoller(store, dispatcherService)
	if err != nil {
		return err
	}
	if mailPoller != nil {
		mailPoller.Start(ctx)
		defer mailPoller.Stop()
	}

	cronScheduler := cron.StartCron(s.log, repositories.DocumentRepository, lifecycleService, notifier)
	defer cronScheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.RegisterRoutes(ctx, r, &api.Routes{
		Cfg:                s.cfg,
		Log:                s.log,
		DocumentRepository: repositories.DocumentRepository,
		LifecycleService:   lifecycleService,
		AttachmentStore:    store,
		Dispatcher:         dispatcherService,
		Notifier:           notifier,
	})

	httpServer := &http.Server{
		Addr:    ":" + s.cfg.AppConfig.APIPort,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Infof("Starting paperdesk API on port %s", s.cfg.AppConfig.APIPort)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-serverErrors:
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
		s.log.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("Failed to gracefully shut down http server: %v", err)
	}

	return nil
}

func (s *Server) initAttachmentStore() (interfaces.AttachmentStore, error) {
	switch s.cfg.StorageConfig.Backend {
	case "s3":
		store, err := attachments.NewS3Store(s.cfg.StorageConfig, s.log)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize s3 attachment store")
		}
		return store, nil
	default:
		store, err := attachments.NewLocalStore(s.cfg.StorageConfig.AttachmentDir, s.log)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize local attachment store")
		}
		return store, nil
	}
}

// initPoller wires the mail source. IMAP wins when enabled, Gmail is the
// default, and with both disabled the API still runs without background
// ingestion.
func (s *Server) initPoller(store interfaces.AttachmentStore, dispatcherService interfaces.Dispatcher) (*poller.Poller, error) {
	var mailClient interfaces.MailClient
	switch {
	case s.cfg.IMAPConfig.Enabled:
		mailClient = imapmail.NewIMAPClient(s.cfg.IMAPConfig, s.log)
	case s.cfg.GmailConfig.Enabled:
		mailClient = gmail.NewGmailClient(s.cfg.GmailConfig, s.log)
	default:
		s.log.Warn("No mail source enabled, mailbox polling disabled")
		return nil, nil
	}

	ledger, err := poller.NewFileLedger(s.cfg.StorageConfig.LedgerPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open processed-id ledger")
	}

	extractor := attachments.NewExtractor(mailClient, store, s.log)
	return poller.NewPoller(s.cfg.PollerConfig, mailClient, extractor, dispatcherService, ledger, s.log), nil
}

// RunMigrations connects and applies the schema, then exits. Used by the
// migrate command.
func RunMigrations(cfg *config.Config, log logger.Logger) error {
	db, err := database.InitDatabase(cfg.DatabaseConfig)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}

	if err = repository.MigrateDB(db); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	log.Info("Database migrations applied")
	return nil
}
