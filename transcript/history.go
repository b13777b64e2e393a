package transcript

import (
	"iter"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// PageSize is the largest page the messages endpoint returns.
const PageSize = 100

type MessageLister interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// History yields every message of a channel oldest first. Pages are fetched
// forward from the start of the channel only as the caller consumes them.
// A fetch error is yielded once and ends the sequence.
func History(l MessageLister, channelID string) iter.Seq2[*discordgo.Message, error] {
	return func(yield func(*discordgo.Message, error) bool) {
		after := "0"
		for {
			page, err := l.ChannelMessages(channelID, PageSize, "", after, "")
			if err != nil {
				yield(nil, err)
				return
			}
			sort.Slice(page, func(a, b int) bool {
				return snowflakeLess(page[a].ID, page[b].ID)
			})
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < PageSize {
				return
			}
			after = page[len(page)-1].ID
		}
	}
}

// snowflakeLess orders decimal snowflake IDs numerically.
func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
