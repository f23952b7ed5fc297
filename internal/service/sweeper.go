package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// NotificationText is the fixed message delivered by a sweep.
const NotificationText = "🔔 У вас новое уведомление!"

// NotificationStore is the part of the user store a sweep needs.
type NotificationStore interface {
	ListPendingNotifications(ctx context.Context) ([]int64, error)
	MarkSent(ctx context.Context, userID int64) error
}

// Sender delivers a plain text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// DeliveryResult is the outcome for one user in a sweep. Err is nil when the
// message went out and the user was marked sent.
type DeliveryResult struct {
	UserID int64
	Err    error
}

func (r DeliveryResult) Delivered() bool { return r.Err == nil }

// SweepSummary aggregates one sweep run.
type SweepSummary struct {
	RunID     string
	Delivered int
	Failed    int
	Results   []DeliveryResult
}

func (s *SweepSummary) add(r DeliveryResult) {
	s.Results = append(s.Results, r)
	if r.Delivered() {
		s.Delivered++
	} else {
		s.Failed++
	}
}

// Sweeper delivers queued notifications and marks them sent. Deliveries are
// attempted once per sweep; failed users stay queued for the next sweep.
type Sweeper struct {
	store   NotificationStore
	sender  Sender
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewSweeper paces sends at ratePerSec; zero or less disables pacing.
func NewSweeper(store NotificationStore, sender Sender, ratePerSec int, log zerolog.Logger) *Sweeper {
	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = ratePerSec
	}
	return &Sweeper{
		store:   store,
		sender:  sender,
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
	}
}

// Run performs one sweep. Per-user failures are logged and counted, never
// returned; only listing failures and cancellation end the sweep early.
func (s *Sweeper) Run(ctx context.Context) (SweepSummary, error) {
	summary := SweepSummary{RunID: uuid.NewString()}
	log := s.log.With().Str("run_id", summary.RunID).Logger()

	ids, err := s.store.ListPendingNotifications(ctx)
	if err != nil {
		return summary, fmt.Errorf("list pending: %w", err)
	}
	if len(ids) == 0 {
		log.Debug().Msg("sweep: nothing to deliver")
		return summary, nil
	}

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Int("remaining", len(ids)-len(summary.Results)).Msg("sweep interrupted")
			return summary, err
		}
		res := s.deliver(ctx, id)
		summary.add(res)
		if res.Err != nil {
			log.Error().Err(res.Err).Int64("user_id", id).Msg("notification not delivered")
			continue
		}
		log.Debug().Int64("user_id", id).Msg("notification delivered")
	}

	log.Info().Int("delivered", summary.Delivered).Int("failed", summary.Failed).Msg("sweep finished")
	return summary, nil
}

func (s *Sweeper) deliver(ctx context.Context, userID int64) DeliveryResult {
	if err := s.sender.SendText(ctx, userID, NotificationText); err != nil {
		return DeliveryResult{UserID: userID, Err: fmt.Errorf("send: %w", err)}
	}
	if err := s.store.MarkSent(ctx, userID); err != nil {
		return DeliveryResult{UserID: userID, Err: fmt.Errorf("mark sent: %w", err)}
	}
	return DeliveryResult{UserID: userID}
}
