// Package loop drives a Ticker at a fixed rate.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Ticker is anything advanced one step at a time, such as a command scheduler.
type Ticker interface {
	Tick()
}

// Config holds runner configuration.
type Config struct {
	TickRate time.Duration
	// MaxTicks stops the runner after that many ticks. Zero runs until
	// the context is cancelled or Stop is called.
	MaxTicks int
}

// DefaultConfig returns a 20ms (50Hz) tick rate with no tick limit.
func DefaultConfig() Config {
	return Config{TickRate: 20 * time.Millisecond}
}

type Runner struct {
	ticker Ticker
	config Config
	logger *slog.Logger
	ticks  int
	stopCh chan struct{}
	doneCh chan struct{}
}

func New(ticker Ticker, config Config, maybeLogger ...*slog.Logger) *Runner {
	logger := slog.Default()
	if len(maybeLogger) > 0 && maybeLogger[0] != nil {
		logger = maybeLogger[0]
	}
	if config.TickRate <= 0 {
		config.TickRate = DefaultConfig().TickRate
	}
	return &Runner{
		ticker: ticker,
		config: config,
		logger: logger.With("component", "loop"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start ticks until ctx is cancelled, Stop is called, MaxTicks is reached or
// a tick panics. A panic is returned as an error.
func (runner *Runner) Start(ctx context.Context) error {
	defer close(runner.doneCh)
	runner.logger.Info("loop started", "tick_rate", runner.config.TickRate, "max_ticks", runner.config.MaxTicks)
	ticker := time.NewTicker(runner.config.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			runner.logger.Info("loop stopping (context cancelled)", "ticks", runner.ticks)
			return ctx.Err()
		case <-runner.stopCh:
			runner.logger.Info("loop stopping (stop called)", "ticks", runner.ticks)
			return nil
		case <-ticker.C:
			if err := runner.tick(); err != nil {
				runner.logger.Error("tick failed", "tick", runner.ticks, "error", err)
				return err
			}
			if runner.config.MaxTicks > 0 && runner.ticks >= runner.config.MaxTicks {
				runner.logger.Info("loop finished", "ticks", runner.ticks)
				return nil
			}
		}
	}
}

func (runner *Runner) tick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if cause, ok := r.(error); ok {
				err = fmt.Errorf("tick %d: %w", runner.ticks, cause)
			} else {
				err = fmt.Errorf("tick %d: %v", runner.ticks, r)
			}
		}
	}()
	runner.ticks++
	runner.ticker.Tick()
	return nil
}

// Stop asks a running Start to return and waits for it. Stop must be called
// at most once and only after Start.
func (runner *Runner) Stop() {
	close(runner.stopCh)
	<-runner.doneCh
}

// Ticks reports how many ticks have run. Not safe to call while Start is running.
func (runner *Runner) Ticks() int {
	return runner.ticks
}
