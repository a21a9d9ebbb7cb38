package payout

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
)

// Option configures a Splitter, VestingWallet, or Token at construction.
type Option func(*settings)

// settings holds construction-time configuration shared by all ledger types.
type settings struct {
	logger *slog.Logger
	clock  clockwork.Clock
}

// defaultSettings returns the default construction configuration.
func defaultSettings() *settings {
	return &settings{
		logger: slog.New(slog.DiscardHandler),
		clock:  clockwork.NewRealClock(),
	}
}

// WithLogger sets the logger for bookkeeping events.
// By default all logging is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock sets the time source for schedule computations.
// Default is the system clock. Only VestingWallet consults the clock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}
