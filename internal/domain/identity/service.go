package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

const profilesTable = "profiles"

var validRoles = map[string]bool{
	"admin":          true,
	"hospital_admin": true,
	"agent":          true,
	"physician":      true,
	"patient":        true,
}

type Service struct {
	profiles  ProfileRepository
	assisted  AssistedPatientRepository
	publisher realtime.EventPublisher
	logger    zerolog.Logger
}

func NewService(profiles ProfileRepository, assisted AssistedPatientRepository, publisher realtime.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{profiles: profiles, assisted: assisted, publisher: publisher, logger: logger}
}

func (s *Service) CreateProfile(ctx context.Context, p *Profile) error {
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !validRoles[p.Role] {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	p.IsActive = true
	if err := s.profiles.Create(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpInsert, p)
	return nil
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.profiles.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

func (s *Service) UpdateProfile(ctx context.Context, p *Profile) error {
	if p.Role != "" && !validRoles[p.Role] {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, realtime.OpUpdate, p)
	return nil
}

// Deactivate flips is_active off. Deactivated profiles drop out of
// role-targeted broadcasts and active listings.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = false
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.OpUpdate, p)
	return p, nil
}

func (s *Service) ListProfiles(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	return s.profiles.List(ctx, limit, offset)
}

// ListActiveByRole returns every active profile holding the role. Used by
// role-targeted notification broadcasts.
func (s *Service) ListActiveByRole(ctx context.Context, role string) ([]*Profile, error) {
	if !validRoles[role] {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return s.profiles.ListActiveByRole(ctx, role)
}

func (s *Service) SearchProfiles(ctx context.Context, params map[string]string, limit, offset int) ([]*Profile, int, error) {
	return s.profiles.Search(ctx, params, limit, offset)
}

// -- Agent-Assisted Patients --

func (s *Service) AssignAssistedPatient(ctx context.Context, a *AgentAssistedPatient) error {
	agent, err := s.profiles.GetByID(ctx, a.AgentID)
	if err != nil {
		return fmt.Errorf("agent profile: %w", err)
	}
	if agent.Role != "agent" {
		return fmt.Errorf("profile %s is not an agent", a.AgentID)
	}
	if _, err := s.profiles.GetByID(ctx, a.PatientID); err != nil {
		return fmt.Errorf("patient profile: %w", err)
	}
	return s.assisted.Create(ctx, a)
}

func (s *Service) ListAssistedPatients(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*AgentAssistedPatient, int, error) {
	return s.assisted.ListByAgent(ctx, agentID, limit, offset)
}

func (s *Service) RemoveAssistedPatient(ctx context.Context, id uuid.UUID) error {
	return s.assisted.Delete(ctx, id)
}

func (s *Service) publish(ctx context.Context, op string, p *Profile) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.NewChangeEvent(op, profilesTable, p.ID, p.UpdatedAt, p)); err != nil {
		s.logger.Warn().Err(err).Str("profile_id", p.ID.String()).Msg("publish profile change")
	}
}
