package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"instantanalytics/api/measurement"
	"instantanalytics/api/models"
)

// HitInserter persists batches of ledger rows.
type HitInserter interface {
	InsertForwardedHits(ctx context.Context, hits []models.ForwardedHit) error
}

// HitLedger records every hit handled by the gateway and writes them to the
// inserter in batches from a single background loop. RecordHit never blocks
// the request: rows are dropped when the queue is full.
type HitLedger struct {
	inserter      HitInserter
	log           *zap.Logger
	queue         chan models.ForwardedHit
	batchSize     int
	flushInterval time.Duration
	done          chan struct{}
}

func NewHitLedger(inserter HitInserter, batchSize int, flushInterval time.Duration, log *zap.Logger) *HitLedger {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &HitLedger{
		inserter:      inserter,
		log:           log,
		queue:         make(chan models.ForwardedHit, batchSize*10),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}
}

func (l *HitLedger) RecordHit(_ context.Context, hit *measurement.Hit, outcome measurement.Outcome, elapsed time.Duration) {
	if l == nil || hit == nil {
		return
	}
	select {
	case l.queue <- NewForwardedHit(hit, outcome, elapsed, time.Now()):
	default:
		l.log.Warn("hit ledger queue full, dropping row", zap.String("type", string(hit.Type)))
	}
}

// Run flushes queued rows until ctx is cancelled, then drains the queue and
// flushes once more.
func (l *HitLedger) Run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	batch := make([]models.ForwardedHit, 0, l.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := l.inserter.InsertForwardedHits(ctx, batch); err != nil {
			l.log.Error("failed to write forwarded hits", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = make([]models.ForwardedHit, 0, l.batchSize)
	}

	for {
		select {
		case row := <-l.queue:
			batch = append(batch, row)
			if len(batch) >= l.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
		drain:
			for {
				select {
				case row := <-l.queue:
					batch = append(batch, row)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			return
		}
	}
}

// Done is closed once Run has returned.
func (l *HitLedger) Done() <-chan struct{} {
	return l.done
}

// NewForwardedHit turns a hit and its delivery outcome into a ledger row.
func NewForwardedHit(hit *measurement.Hit, outcome measurement.Outcome, elapsed time.Duration, at time.Time) models.ForwardedHit {
	return models.ForwardedHit{
		HitID:         uuid.NewString(),
		Timestamp:     at.UTC(),
		HitType:       string(hit.Type),
		Outcome:       string(outcome),
		TrackingID:    hit.TrackingID,
		ClientID:      hit.ClientID,
		DocumentPath:  hit.DocumentPath,
		DocumentTitle: hit.DocumentTitle,
		EventCategory: hit.EventCategory,
		EventAction:   hit.EventAction,
		EventLabel:    hit.EventLabel,
		EventValue:    hit.EventValue,
		TransactionID: hit.TransactionID,
		Revenue:       hit.Revenue,
		ProductAction: string(hit.ProductAction),
		ProductCount:  uint32(len(hit.Products)),
		IPAddress:     hit.IPOverride,
		UserAgent:     hit.UserAgentOverride,
		LatencyMs:     elapsed.Milliseconds(),
	}
}
