package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ushuari/voice/domain/repositories"
	"github.com/ushuari/voice/internal/metrics"
)

// ConversationJanitor archives conversations whose room went quiet without a
// room_finished notification.
type ConversationJanitor struct {
	conversations repositories.ConversationRepository
	idleTimeout   time.Duration
	interval      time.Duration
	logger        *zap.Logger
	now           func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewConversationJanitor creates a janitor that sweeps every interval.
func NewConversationJanitor(conversations repositories.ConversationRepository, idleTimeout, interval time.Duration, logger *zap.Logger) *ConversationJanitor {
	return &ConversationJanitor{
		conversations: conversations,
		idleTimeout:   idleTimeout,
		interval:      interval,
		logger:        logger,
		now:           time.Now,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (j *ConversationJanitor) Start() {
	go j.loop()
	j.logger.Info("Conversation janitor started",
		zap.Duration("idle_timeout", j.idleTimeout),
		zap.Duration("interval", j.interval))
}

// Stop ends the loop and waits for an in-flight sweep.
func (j *ConversationJanitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
		<-j.done
		j.logger.Info("Conversation janitor stopped")
	})
}

func (j *ConversationJanitor) loop() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			j.Sweep(context.Background())
		}
	}
}

// Sweep archives every active conversation idle past the timeout.
func (j *ConversationJanitor) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	archived, err := j.conversations.ArchiveIdle(ctx, j.now().Add(-j.idleTimeout))
	if err != nil {
		j.logger.Error("Failed to archive idle conversations", zap.Error(err))
		return 0
	}

	if archived > 0 {
		metrics.ConversationsArchived.Add(float64(archived))
		j.logger.Info("Archived idle conversations", zap.Int64("count", archived))
	}
	return archived
}
