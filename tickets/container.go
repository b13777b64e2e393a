package tickets

import (
	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/singleflight"
)

// ContainerGuard collapses concurrent find-or-create calls for the same
// category so that simultaneous first tickets do not create duplicates.
type ContainerGuard struct {
	group singleflight.Group
}

// Ensure returns the category found by find, calling create only when find
// reports none.
func (g *ContainerGuard) Ensure(guildID, name string, find, create func() (*discordgo.Channel, error)) (*discordgo.Channel, error) {
	v, err, _ := g.group.Do(guildID+"/"+name, func() (interface{}, error) {
		ch, err := find()
		if err != nil {
			return nil, err
		}
		if ch != nil {
			return ch, nil
		}
		return create()
	})
	if err != nil {
		return nil, err
	}
	return v.(*discordgo.Channel), nil
}
