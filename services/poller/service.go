package poller

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go/log"

	"github.com/paperdesk/paperdesk/config"
	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/logger"
	"github.com/paperdesk/paperdesk/internal/tracing"
	"github.com/paperdesk/paperdesk/services/attachments"
)

const stopTimeout = 30 * time.Second

// Poller is the single long-running ingestion loop: list unseen messages,
// claim each id in the ledger, extract its attachments and hand them to the
// dispatcher. One poisoned message never stops the loop.
type Poller struct {
	cfg        *config.PollerConfig
	mailClient interfaces.MailClient
	extractor  *attachments.Extractor
	dispatcher interfaces.Dispatcher
	ledger     interfaces.Ledger
	log        logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(
	cfg *config.PollerConfig,
	mailClient interfaces.MailClient,
	extractor *attachments.Extractor,
	dispatcher interfaces.Dispatcher,
	ledger interfaces.Ledger,
	log logger.Logger,
) *Poller {
	return &Poller{
		cfg:        cfg,
		mailClient: mailClient,
		extractor:  extractor,
		dispatcher: dispatcher,
		ledger:     ledger,
		log:        log,
	}
}

func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	interval := time.Duration(p.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer tracing.RecoverAndLogToJaeger(p.log)

		p.log.Infof("Mailbox poller started, interval %s, query %q", interval, p.cfg.Query)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		p.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				p.log.Info("Mailbox poller stopped")
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight iteration to finish,
// bounded by stopTimeout.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		p.log.Warn("Timed out waiting for mailbox poller to stop")
	}
}

func (p *Poller) poll(ctx context.Context) {
	span, ctx := tracing.StartTracerSpan(ctx, "Poller.poll")
	defer span.Finish()
	tracing.TagComponentPoller(span)

	ids, err := p.mailClient.ListUnseen(ctx, p.cfg.Query, p.cfg.MaxResults)
	if err != nil {
		tracing.TraceErr(span, err)
		p.log.Warnf("Failed to list messages: %v", err)
		return
	}

	processed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if p.ledger.Contains(id) {
			continue
		}
		p.processMessage(ctx, id)
		processed++
	}

	if processed > 0 {
		span.LogFields(log.Int("result.processed", processed))
		p.log.Infof("Poll iteration processed %d new messages, ledger size %d", processed, p.ledger.Size())
	}
}

// processMessage claims the id before extraction. A crash after the claim
// but before extraction loses that message's attachments, which bounds
// duplicate work on restart; at-least-once delivery of the terminal effects
// is not guaranteed.
func (p *Poller) processMessage(ctx context.Context, id string) {
	span, ctx := tracing.StartTracerSpan(ctx, "Poller.processMessage")
	defer span.Finish()
	tracing.TagComponentPoller(span)
	tracing.TagEntity(span, id)

	if err := p.ledger.Mark(id); err != nil {
		tracing.TraceErr(span, err)
		p.log.Errorf("Failed to claim message %s in ledger, skipping: %v", id, err)
		return
	}

	message, err := p.mailClient.GetMessage(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		p.log.Warnf("Failed to fetch message %s: %v", id, err)
		return
	}

	saved, err := p.extractor.ExtractAttachments(ctx, message)
	if err != nil {
		tracing.TraceErr(span, err)
		p.log.Warnf("Failed to extract attachments from message %s: %v", id, err)
		return
	}

	for _, meta := range saved {
		p.dispatcher.Dispatch(ctx, meta)
	}
}
