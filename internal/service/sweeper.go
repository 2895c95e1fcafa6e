package service

import (
	"context"
	"errors"
	"log"
	"time"

	"assessment-service/internal/event"
	"assessment-service/internal/models"
)

var errNotOverdue = errors.New("session still has time")

// ExpireOverdue expires every running session whose time limit is used up and
// returns how many it expired. Overdue is re-checked under the session lock.
func (s *AssessmentService) ExpireOverdue(ctx context.Context) (int, error) {
	running, err := s.sessions.ListByStatus(ctx, models.SessionStatusActive, models.SessionStatusPaused)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range running {
		if !s.lifecycle.IsOverdue(&running[i]) {
			continue
		}
		_, err := s.transition(ctx, running[i].ID, systemAccess, event.SessionExpired, func(session *models.AssessmentSession) error {
			if !s.lifecycle.IsOverdue(session) {
				return errNotOverdue
			}
			return s.lifecycle.Expire(session)
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, errNotOverdue):
		default:
			log.Printf("Error expiring session %s: %v", running[i].ID, err)
		}
	}
	return expired, nil
}

// RunExpirySweeper calls ExpireOverdue every interval until ctx is done.
func (s *AssessmentService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("Expiry sweeper running every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireOverdue(ctx)
			if err != nil {
				log.Printf("Error sweeping overdue sessions: %v", err)
			} else if n > 0 {
				log.Printf("Expired %d overdue sessions", n)
			}
		}
	}
}
