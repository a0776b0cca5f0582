package cron

import (
	"context"

	"github.com/caarlos0/env/v6"
	"github.com/robfig/cron/v3"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/enum"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/internal/utils"
)

type Config struct {
	HeartbeatSchedule     string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * *"`
	DeadlineSweepSchedule string `env:"CRON_SCHEDULE_DEADLINE_SWEEP" envDefault:"30 6 * * *"`
}

// StartCron registers the background jobs and starts the scheduler. Jobs
// skip a run if the previous one is still going.
func StartCron(
	log logger.Logger,
	documentRepository interfaces.DocumentRepository,
	lifecycleService interfaces.LifecycleService,
	notifier interfaces.Notifier,
) *cron.Cron {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Error parsing cron config: %v", err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := c.AddFunc(cfg.HeartbeatSchedule, func() {
		defer tracing.RecoverAndLogToJaeger(log)
		log.Info("Heartbeat: paperdesk background jobs alive")
	}); err != nil {
		log.Fatalf("Could not add heartbeat cron job: %v", err)
	}

	if _, err := c.AddFunc(cfg.DeadlineSweepSchedule, func() {
		defer tracing.RecoverAndLogToJaeger(log)
		sweepDeadlines(log, documentRepository, lifecycleService, notifier)
	}); err != nil {
		log.Fatalf("Could not add deadline sweep cron job: %v", err)
	}

	c.Start()
	return c
}

// sweepDeadlines emits a generic notification for each document whose
// outstanding deadlines need attention. Read-only over the bins; it never
// moves obligations on its own.
func sweepDeadlines(
	log logger.Logger,
	documentRepository interfaces.DocumentRepository,
	lifecycleService interfaces.LifecycleService,
	notifier interfaces.Notifier,
) {
	span, ctx := tracing.StartTracerSpan(context.Background(), "Cron.sweepDeadlines")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	documents, err := documentRepository.List(ctx, interfaces.DocumentFilter{})
	if err != nil {
		tracing.TraceErr(span, err)
		log.Errorf("Deadline sweep failed to list documents: %v", err)
		return
	}

	now := utils.Now()
	flagged := 0
	for _, document := range documents {
		if lifecycleService.AggregateStatus(document, now) != enum.DocumentStatusNeedsAttention {
			continue
		}
		flagged++
		notifier.Publish(dto.Notification{
			Type:    enum.NotificationGeneric,
			Title:   "Deadline Approaching",
			Message: "Document \"" + document.Name + "\" has deadlines that need attention.",
			Data: map[string]interface{}{
				"docId":    document.ID,
				"category": document.Category.String(),
			},
		})
	}

	if flagged > 0 {
		log.Infof("Deadline sweep flagged %d of %d documents", flagged, len(documents))
	}
}
