package tickets

import (
	"sort"
	"sync"
	"time"
)

// Ticket is what the process remembers about an open ticket channel.
type Ticket struct {
	ChannelID   string
	GuildID     string
	RequesterID string
	Reason      string
	CreatedAt   time.Time
}

// Registry maps ticket channel IDs to their metadata. It lives only as long
// as the process.
type Registry struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
}

func NewRegistry() *Registry {
	return &Registry{tickets: make(map[string]Ticket)}
}

func (r *Registry) Add(t Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ChannelID] = t
}

func (r *Registry) Get(channelID string) (Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[channelID]
	return t, ok
}

func (r *Registry) Remove(channelID string) (Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[channelID]
	if ok {
		delete(r.tickets, channelID)
	}
	return t, ok
}

// List returns the open tickets of a guild, oldest first.
func (r *Registry) List(guildID string) []Ticket {
	r.mu.RLock()
	out := make([]Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if t.GuildID == guildID {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ChannelID < out[b].ChannelID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out
}
