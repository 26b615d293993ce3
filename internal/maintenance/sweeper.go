// Package maintenance runs the background housekeeping jobs of the server.
package maintenance

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/acortes/librarium-be/internal/services"
)

// Sweeper periodically clears verification tokens that have expired.
// Expired tokens already fail verification; the sweep keeps dead secrets
// from sitting in the users table indefinitely.
type Sweeper struct {
	userSvc  services.UserServiceProvider
	schedule cron.Schedule
	nextRun  time.Time
	ticker   *time.Ticker
	done     chan bool
}

// NewSweeper creates a sweeper from a standard cron expression (descriptors
// like @hourly are accepted).
func NewSweeper(userSvc services.UserServiceProvider, scheduleSpec string) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(scheduleSpec)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		userSvc:  userSvc,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the sweeper's ticking loop.
func (s *Sweeper) Run() {
	log.Info().Msg("Starting verification token sweeper")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	// Run once immediately on start
	s.sweep()
	s.nextRun = s.schedule.Next(time.Now())

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping verification token sweeper")
			return
		case <-s.ticker.C:
			if time.Now().After(s.nextRun) {
				s.sweep()
				s.nextRun = s.schedule.Next(time.Now())
			}
		}
	}
}

// Stop halts the sweeper.
func (s *Sweeper) Stop() {
	s.done <- true
}

func (s *Sweeper) sweep() {
	purged, err := s.userSvc.PurgeExpiredTokens()
	if err != nil {
		log.Error().Err(err).Msg("Token sweep failed")
		return
	}
	if purged > 0 {
		log.Info().Int64("purged", purged).Msg("Cleared expired verification tokens")
	}
}
