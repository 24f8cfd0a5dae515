package consultation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/pkg/backoff"
)

// Recovery detects and repairs the two known session inconsistencies: an
// in-progress session missing its room, and a scheduled video session
// missing its room. Repairs are idempotent; recovering a healthy session
// changes nothing.
type Recovery struct {
	svc    *Service
	policy backoff.Policy
	logger zerolog.Logger
}

func NewRecovery(svc *Service, policy backoff.Policy, logger zerolog.Logger) *Recovery {
	return &Recovery{svc: svc, policy: policy, logger: logger}
}

// needsRoom reports whether the session must have a room row.
func needsRoom(sess *Session) bool {
	if sess.Status == StatusInProgress {
		return true
	}
	return sess.Status == StatusScheduled && sess.IsVideo()
}

// HealthCheck reports whether a session is consistent. A missing room on a
// non-completed video session is unhealthy but repairable.
func (r *Recovery) HealthCheck(ctx context.Context, sessionID uuid.UUID) (*Health, error) {
	sess, err := r.svc.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Health{SessionID: sessionID, Healthy: false, Reason: "session does not exist"}, nil
		}
		return nil, err
	}

	h := &Health{SessionID: sessionID, Healthy: true, Status: sess.Status}
	if sess.IsVideo() && sess.Status != StatusCompleted && sess.Status != StatusExpired {
		if _, err := r.svc.GetRoom(ctx, sessionID); err != nil {
			if errors.Is(err, ErrNotFound) {
				h.Healthy = false
				h.Reason = "video session has no room"
				return h, nil
			}
			return nil, err
		}
	}
	return h, nil
}

// RecoverSession repairs a session's missing room, retrying with bounded
// exponential backoff. After exhausting the policy it returns the terminal
// *backoff.ExhaustedError.
func (r *Recovery) RecoverSession(ctx context.Context, sessionID uuid.UUID) error {
	err := backoff.Retry(ctx, r.policy, func(ctx context.Context) error {
		return r.recoverOnce(ctx, sessionID)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("session recovery failed")
		return err
	}
	return nil
}

func (r *Recovery) recoverOnce(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := r.svc.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if !needsRoom(sess) {
		return nil
	}

	if _, err := r.svc.EnsureRoom(ctx, sessionID); err != nil {
		return fmt.Errorf("ensure room: %w", err)
	}
	return nil
}
