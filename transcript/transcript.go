package transcript

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	lineTimeLayout   = "2006-01-02 15:04:05"
	headerTimeLayout = "2006-01-02T15:04:05"

	// EmptyBody stands in for the log of a channel without messages.
	EmptyBody = "No messages."
)

// Record is one rendered message of a ticket channel.
type Record struct {
	MessageID   string
	Timestamp   time.Time
	AuthorName  string
	AuthorID    string
	AuthorBot   bool
	Content     string
	Attachments []string
}

func FromMessage(m *discordgo.Message) Record {
	r := Record{
		MessageID: m.ID,
		Timestamp: m.Timestamp,
		Content:   m.Content,
	}
	if m.Author != nil {
		r.AuthorName = DisplayTag(m.Author)
		r.AuthorID = m.Author.ID
		r.AuthorBot = m.Author.Bot
	} else {
		r.AuthorName = "unknown"
	}
	for _, a := range m.Attachments {
		if a != nil {
			r.Attachments = append(r.Attachments, a.URL)
		}
	}
	return r
}

// DisplayTag renders a user as "name#1234", or just "name" for accounts
// without a legacy discriminator.
func DisplayTag(u *discordgo.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

func (r Record) Line() string {
	line := fmt.Sprintf("[%s] %s (%s): %s", r.Timestamp.UTC().Format(lineTimeLayout), r.AuthorName, r.AuthorID, r.Content)
	if len(r.Attachments) > 0 {
		line += " | Attachments: " + strings.Join(r.Attachments, ", ")
	}
	return line
}

type Header struct {
	ChannelName string
	ChannelID   string
	CloserName  string
	CloserID    string
	ClosedAt    time.Time
}

func (h Header) String() string {
	return fmt.Sprintf("Transcript for %s (%s)\nClosed by: %s (%s) at %s UTC\n\n",
		h.ChannelName, h.ChannelID, h.CloserName, h.CloserID, h.ClosedAt.UTC().Format(headerTimeLayout))
}

// Transcript is the immutable record of a ticket channel at close time.
type Transcript struct {
	Header  Header
	Records []Record
}

// Collect drains msgs into a transcript. The first error aborts collection.
func Collect(h Header, msgs iter.Seq2[*discordgo.Message, error]) (*Transcript, error) {
	t := &Transcript{Header: h}
	for m, err := range msgs {
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, FromMessage(m))
	}
	return t, nil
}

func (t *Transcript) Body() string {
	if len(t.Records) == 0 {
		return EmptyBody
	}
	lines := make([]string, len(t.Records))
	for i, r := range t.Records {
		lines[i] = r.Line()
	}
	return strings.Join(lines, "\n")
}

func (t *Transcript) String() string {
	return t.Header.String() + t.Body()
}

// FirstAuthorID is the author of the earliest message not sent by a bot,
// or "" when there is none.
func (t *Transcript) FirstAuthorID() string {
	for _, r := range t.Records {
		if !r.AuthorBot && r.AuthorID != "" {
			return r.AuthorID
		}
	}
	return ""
}
