// Package events feeds platform change notifications into the recompute
// scheduler. The platform publishes community, membership and linkage
// changes over a nanomsg pub/sub socket; this subscriber converts them into
// recompute triggers, replacing the old UI refetch-polling behaviour.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/communeos/bridgenet/pkg/logging"
)

// Topics the platform publishes on.
const (
	TopicCommunityUpdated = "community.updated"
	TopicMembershipChange = "membership.changed"
	TopicLinkageDeclared  = "linkage.declared"
)

// ChangeEvent is the payload the platform publishes after the topic prefix.
type ChangeEvent struct {
	Topic       string `json:"topic" validate:"required"`
	CommunityID uint64 `json:"community_id" validate:"required"`
	OccurredAt  int64  `json:"occurred_at" validate:"gt=0"`
}

// Trigger is the scheduler surface the subscriber needs.
type Trigger interface {
	TriggerRecompute(reason string) (string, error)
}

// Subscriber listens for platform change events and triggers recomputes.
type Subscriber struct {
	addr     string
	sock     mangos.Socket
	trigger  Trigger
	validate *validator.Validate
	log      logging.Logger

	// Debounce collapses bursts of change events into one recompute.
	Debounce time.Duration
}

// NewSubscriber dials the platform's event socket and subscribes to the
// bridge-relevant topics.
func NewSubscriber(addr string, trigger Trigger, log logging.Logger) (*Subscriber, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	sock, err := sub.NewSocket()
	if err != nil {
		return nil, err
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, err
	}

	for _, topic := range []string{TopicCommunityUpdated, TopicMembershipChange, TopicLinkageDeclared} {
		if err := sock.SetOption(mangos.OptionSubscribe, []byte(topic)); err != nil {
			sock.Close()
			return nil, err
		}
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, time.Second); err != nil {
		sock.Close()
		return nil, err
	}

	return &Subscriber{
		addr:     addr,
		sock:     sock,
		trigger:  trigger,
		validate: validator.New(),
		log:      log.With(logging.Component("events")),
		Debounce: 2 * time.Second,
	}, nil
}

// Listen receives events until ctx is cancelled. Malformed payloads are
// dropped with a warning; they must never stall the feed.
func (s *Subscriber) Listen(ctx context.Context) error {
	defer s.sock.Close()

	var lastTrigger time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := s.sock.Recv()
		if err != nil {
			if err == mangos.ErrRecvTimeout {
				continue
			}
			return err
		}

		event, ok := s.decode(raw)
		if !ok {
			continue
		}

		if time.Since(lastTrigger) < s.Debounce {
			s.log.Debug("change event debounced", logging.String("topic", event.Topic))
			continue
		}
		lastTrigger = time.Now()

		jobID, err := s.trigger.TriggerRecompute(event.Topic)
		if err != nil {
			s.log.Error("failed to trigger recompute",
				logging.String("topic", event.Topic), logging.Error(err))
			continue
		}
		s.log.Info("change event triggered recompute",
			logging.String("topic", event.Topic),
			logging.CommunityID(event.CommunityID),
			logging.JobID(jobID))
	}
}

// decode splits the topic prefix from the JSON payload and validates it.
func (s *Subscriber) decode(raw []byte) (ChangeEvent, bool) {
	var event ChangeEvent

	// Payload starts at the first '{' after the topic prefix.
	start := -1
	for i, b := range raw {
		if b == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		s.log.Warn("dropping change event without payload")
		return event, false
	}

	if err := json.Unmarshal(raw[start:], &event); err != nil {
		s.log.Warn("dropping undecodable change event", logging.Error(err))
		return event, false
	}
	if event.Topic == "" {
		event.Topic = string(raw[:start])
	}
	if err := s.validate.Struct(&event); err != nil {
		s.log.Warn("dropping invalid change event", logging.Error(err))
		return event, false
	}
	return event, true
}
