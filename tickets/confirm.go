package tickets

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// State is the position of a close confirmation in its lifecycle.
type State int32

const (
	Idle State = iota
	AwaitingConfirmation
	Confirmed
	Canceled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Confirmed:
		return "confirmed"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == Confirmed || s == Canceled
}

var transitionMap = map[State][]State{
	Idle:                 {AwaitingConfirmation},
	AwaitingConfirmation: {Confirmed, Canceled},
}

func ValidTransition(from, to State) bool {
	for _, s := range transitionMap[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Confirmation is one pending "are you sure?" prompt for closing a ticket.
type Confirmation struct {
	Token     string
	ChannelID string
	GuildID   string
	ActorID   string
	CreatedAt time.Time

	state atomic.Int32
}

func (c *Confirmation) State() State {
	return State(c.state.Load())
}

func (c *Confirmation) transition(to State) error {
	for {
		from := c.State()
		if !ValidTransition(from, to) {
			if from.Terminal() {
				return ErrAlreadyResolved
			}
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		if c.state.CompareAndSwap(int32(from), int32(to)) {
			return nil
		}
	}
}

// Confirmations keeps pending prompts keyed by token. Entries expire after
// the configured TTL and the oldest are evicted beyond capacity.
type Confirmations struct {
	cache *expirable.LRU[string, *Confirmation]
}

func NewConfirmations(capacity int, ttl time.Duration) *Confirmations {
	return &Confirmations{
		cache: expirable.NewLRU[string, *Confirmation](capacity, nil, ttl),
	}
}

// Begin records a new prompt raised by actorID for channelID.
func (c *Confirmations) Begin(channelID, guildID, actorID string) *Confirmation {
	conf := &Confirmation{
		Token:     uuid.NewString(),
		ChannelID: channelID,
		GuildID:   guildID,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	_ = conf.transition(AwaitingConfirmation)
	c.cache.Add(conf.Token, conf)
	return conf
}

// Resolve moves the prompt identified by token to a terminal state. Only the
// identity that raised the prompt may resolve it, and only once.
func (c *Confirmations) Resolve(token, actorID string, to State) (*Confirmation, error) {
	if !to.Terminal() {
		return nil, fmt.Errorf("%w: target %s", ErrInvalidTransition, to)
	}
	conf, ok := c.cache.Get(token)
	if !ok {
		return nil, ErrConfirmationNotFound
	}
	if conf.ActorID != actorID {
		return nil, ErrPermissionDenied
	}
	if err := conf.transition(to); err != nil {
		return nil, err
	}
	c.cache.Remove(token)
	return conf, nil
}

func (c *Confirmations) Len() int {
	return c.cache.Len()
}
