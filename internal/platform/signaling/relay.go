// Package signaling relays WebRTC session negotiation between the two
// participants of a video consultation. SDP and ICE payloads are opaque; the
// relay only enforces the handshake: both sides must join the session channel
// before an offer may be sent, and each negotiation accepts exactly one
// offer/answer pair.
package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/realtime"
)

// SignalType identifies a signaling message.
type SignalType string

const (
	SignalJoin      SignalType = "join"
	SignalReady     SignalType = "ready"
	SignalOffer     SignalType = "offer"
	SignalAnswer    SignalType = "answer"
	SignalCandidate SignalType = "candidate"
	SignalLeave     SignalType = "leave"
	SignalError     SignalType = "error"
)

// SignalMessage is the unit relayed between participants.
type SignalMessage struct {
	Type      SignalType      `json:"type"`
	SessionID uuid.UUID       `json:"session_id"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Role      string          `json:"role,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ChannelState mirrors the negotiation progress of a session channel.
type ChannelState string

const (
	StateNew        ChannelState = "new"
	StateConnecting ChannelState = "connecting"
	StateConnected  ChannelState = "connected"
)

// Participant roles on a session channel.
const (
	RolePatient   = "patient"
	RolePhysician = "physician"
)

var (
	ErrChannelFull    = errors.New("session channel already has two participants")
	ErrNotParticipant = errors.New("user has not joined the session channel")
	ErrNotReady       = errors.New("both participants must join before an offer can be sent")
	ErrInvalidRole    = errors.New("role must be patient or physician")
	ErrBadSignal      = errors.New("unsupported signal type")
)

// ParticipantTracker records joined/left participants on the session's room
// row so other observers see who is present. Implemented by the consultation
// service.
type ParticipantTracker interface {
	SetParticipantJoined(ctx context.Context, sessionID uuid.UUID, role string, joined bool) error
}

// Broadcaster is the slice of the realtime hub the relay needs.
type Broadcaster interface {
	Broadcast(topic string, event realtime.Event)
	BroadcastExceptUser(topic, userID string, event realtime.Event)
}

// ChannelTopic returns the realtime topic for a session's signaling channel.
func ChannelTopic(sessionID uuid.UUID) string {
	return "webrtc:" + sessionID.String()
}

type channel struct {
	participants map[string]string // user id -> role
	state        ChannelState
	offerFrom    string
}

// Relay coordinates the signaling channels of all active sessions.
type Relay struct {
	mu       sync.Mutex
	channels map[uuid.UUID]*channel
	bus      Broadcaster
	tracker  ParticipantTracker
	logger   zerolog.Logger
}

func NewRelay(bus Broadcaster, tracker ParticipantTracker, logger zerolog.Logger) *Relay {
	return &Relay{
		channels: make(map[uuid.UUID]*channel),
		bus:      bus,
		tracker:  tracker,
		logger:   logger,
	}
}

// Join adds a participant to a session channel. Rejoining is a no-op for
// channel membership. When the second participant arrives, a ready signal is
// broadcast to both sides; only then may an offer be sent. This replaces the
// fixed settle delay the browser clients used to rely on.
func (r *Relay) Join(ctx context.Context, sessionID uuid.UUID, userID, role string) error {
	if role != RolePatient && role != RolePhysician {
		return ErrInvalidRole
	}

	r.mu.Lock()
	ch, ok := r.channels[sessionID]
	if !ok {
		ch = &channel{participants: make(map[string]string), state: StateNew}
		r.channels[sessionID] = ch
	}
	if _, present := ch.participants[userID]; !present && len(ch.participants) >= 2 {
		r.mu.Unlock()
		return ErrChannelFull
	}
	ch.participants[userID] = role
	full := len(ch.participants) == 2
	r.mu.Unlock()

	if r.tracker != nil {
		if err := r.tracker.SetParticipantJoined(ctx, sessionID, role, true); err != nil {
			r.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to record participant join")
		}
	}

	topic := ChannelTopic(sessionID)
	r.bus.BroadcastExceptUser(topic, userID, r.event(SignalMessage{
		Type: SignalJoin, SessionID: sessionID, From: userID, Role: role,
	}))

	if full {
		r.bus.Broadcast(topic, r.event(SignalMessage{
			Type: SignalReady, SessionID: sessionID,
		}))
	}

	return nil
}

// Leave removes a participant and resets the negotiation so a later rejoin
// renegotiates from scratch.
func (r *Relay) Leave(ctx context.Context, sessionID uuid.UUID, userID string) error {
	r.mu.Lock()
	ch, ok := r.channels[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrNotParticipant
	}
	role, present := ch.participants[userID]
	if !present {
		r.mu.Unlock()
		return ErrNotParticipant
	}
	delete(ch.participants, userID)
	ch.state = StateNew
	ch.offerFrom = ""
	empty := len(ch.participants) == 0
	if empty {
		delete(r.channels, sessionID)
	}
	r.mu.Unlock()

	if r.tracker != nil {
		if err := r.tracker.SetParticipantJoined(ctx, sessionID, role, false); err != nil {
			r.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to record participant leave")
		}
	}

	r.bus.BroadcastExceptUser(ChannelTopic(sessionID), userID, r.event(SignalMessage{
		Type: SignalLeave, SessionID: sessionID, From: userID, Role: role,
	}))

	return nil
}

// Signal relays an offer, answer, or ICE candidate to the other participant,
// enforcing the handshake ordering. Duplicate offers after negotiation has
// begun are suppressed rather than re-sent.
func (r *Relay) Signal(ctx context.Context, msg SignalMessage) error {
	r.mu.Lock()
	ch, ok := r.channels[msg.SessionID]
	if !ok {
		r.mu.Unlock()
		return ErrNotParticipant
	}
	if _, present := ch.participants[msg.From]; !present {
		r.mu.Unlock()
		return ErrNotParticipant
	}

	switch msg.Type {
	case SignalOffer:
		if len(ch.participants) < 2 {
			r.mu.Unlock()
			// Tell the caller over the channel as well, so clients that
			// fired the offer before the ready signal see the rejection
			// without waiting on the HTTP response.
			r.bus.Broadcast(ChannelTopic(msg.SessionID), r.event(SignalMessage{
				Type:      SignalError,
				SessionID: msg.SessionID,
				To:        msg.From,
				Error:     ErrNotReady.Error(),
			}))
			return ErrNotReady
		}
		if ch.state != StateNew {
			// Duplicate offer after the handshake started.
			dupFrom := ch.offerFrom
			r.mu.Unlock()
			r.logger.Debug().
				Str("session_id", msg.SessionID.String()).
				Str("from", msg.From).
				Str("offer_from", dupFrom).
				Msg("duplicate offer suppressed")
			return nil
		}
		ch.state = StateConnecting
		ch.offerFrom = msg.From
	case SignalAnswer:
		if ch.state != StateConnecting {
			r.mu.Unlock()
			return fmt.Errorf("answer before offer: %w", ErrBadSignal)
		}
		if msg.From == ch.offerFrom {
			r.mu.Unlock()
			return fmt.Errorf("answer must come from the callee: %w", ErrBadSignal)
		}
		ch.state = StateConnected
	case SignalCandidate:
		// Candidates may trickle at any point after joining.
	default:
		r.mu.Unlock()
		return ErrBadSignal
	}
	r.mu.Unlock()

	r.bus.BroadcastExceptUser(ChannelTopic(msg.SessionID), msg.From, r.event(msg))
	return nil
}

// State reports the negotiation state of a session channel.
func (r *Relay) State(sessionID uuid.UUID) ChannelState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[sessionID]; ok {
		return ch.state
	}
	return StateNew
}

// Participants returns the user ids currently on a session channel.
func (r *Relay) Participants(sessionID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[sessionID]
	if !ok {
		return nil
	}
	users := make([]string, 0, len(ch.participants))
	for id := range ch.participants {
		users = append(users, id)
	}
	return users
}

func (r *Relay) event(msg SignalMessage) realtime.Event {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal signal")
	}
	return realtime.Event{
		Type:      string(msg.Type),
		Topic:     ChannelTopic(msg.SessionID),
		Timestamp: time.Now(),
		Data:      data,
	}
}
