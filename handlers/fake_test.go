package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"ticket-bot/config"
	"ticket-bot/events"
	"ticket-bot/lang"
	"ticket-bot/storage"

	"github.com/bwmarrin/discordgo"
)

const (
	testGuild   = "100"
	testBotID   = "1"
	supportRole = "500"
	logChannel  = "600"
)

var errNotFound = &discordgo.RESTError{
	Response: &http.Response{Status: "404 Not Found", StatusCode: http.StatusNotFound},
	Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel, Message: "Unknown Channel"},
}

type sentMessage struct {
	ChannelID string
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Buttons   []discordgo.Button
	Files     map[string]string
}

type response struct {
	InteractionID string
	Type          discordgo.InteractionResponseType
	Data          *discordgo.InteractionResponseData
}

// fakeSession is an in-memory guild that records every call.
type fakeSession struct {
	mu     sync.Mutex
	nextID int

	channels map[string]*discordgo.Channel
	history  map[string][]*discordgo.Message
	roles    []*discordgo.Role

	created   []discordgo.GuildChannelCreateData
	made      []*discordgo.Channel
	sent      []sentMessage
	responses []response
	followups []response
	deleted   []string
	deleteLog []string
	dms       []string

	failCreateText error
	failDM         error
	failDelete     error
	failFollowup   error
	failLookup     map[string]error
	failSend       map[string]error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		nextID:   1000,
		channels: make(map[string]*discordgo.Channel),
		history:  make(map[string][]*discordgo.Message),
		roles: []*discordgo.Role{
			{ID: testGuild, Name: "@everyone"},
			{ID: supportRole, Name: "Support"},
		},
	}
}

func (f *fakeSession) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeSession) addChannel(ch *discordgo.Channel) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch.ID == "" {
		ch.ID = f.newID()
	}
	f.channels[ch.ID] = ch
	return ch
}

func (f *fakeSession) post(channelID string, author *discordgo.User, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[channelID] = append(f.history[channelID], &discordgo.Message{
		ID:        f.newID(),
		ChannelID: channelID,
		Content:   content,
		Author:    author,
		Timestamp: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	})
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelID]; !ok {
		return nil, errNotFound
	}
	after, _ := strconv.Atoi(afterID)
	var page []*discordgo.Message
	for _, m := range f.history[channelID] {
		id, _ := strconv.Atoi(m.ID)
		if id > after && len(page) < limit {
			page = append(page, m)
		}
	}
	out := make([]*discordgo.Message, len(page))
	for i := range page {
		out[i] = page[len(page)-1-i]
	}
	return out, nil
}

func (f *fakeSession) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*discordgo.Channel
	for _, ch := range f.channels {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data.Type == discordgo.ChannelTypeGuildText && f.failCreateText != nil {
		return nil, f.failCreateText
	}
	f.created = append(f.created, data)
	ch := &discordgo.Channel{
		ID:                   f.newID(),
		GuildID:              guildID,
		Name:                 data.Name,
		Type:                 data.Type,
		ParentID:             data.ParentID,
		PermissionOverwrites: data.PermissionOverwrites,
	}
	f.channels[ch.ID] = ch
	f.made = append(f.made, ch)
	return ch, nil
}

func (f *fakeSession) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLookup[channelID]; err != nil {
		return nil, err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errNotFound
	}
	return ch, nil
}

func (f *fakeSession) ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteLog = append(f.deleteLog, channelID)
	if f.failDelete != nil {
		return nil, f.failDelete
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errNotFound
	}
	delete(f.channels, channelID)
	delete(f.history, channelID)
	f.deleted = append(f.deleted, channelID)
	return ch, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	msg := sentMessage{ChannelID: channelID, Content: data.Content, Embeds: data.Embeds, Files: map[string]string{}}
	for _, row := range data.Components {
		if r, ok := row.(discordgo.ActionsRow); ok {
			for _, c := range r.Components {
				if b, ok := c.(discordgo.Button); ok {
					msg.Buttons = append(msg.Buttons, b)
				}
			}
		}
	}
	for _, file := range data.Files {
		body, err := io.ReadAll(file.Reader)
		if err != nil {
			return nil, err
		}
		msg.Files[file.Name] = string(body)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSend[channelID]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, msg)
	m := &discordgo.Message{
		ID:        f.newID(),
		ChannelID: channelID,
		Content:   data.Content,
		Author:    &discordgo.User{ID: testBotID, Username: "ticketbot", Bot: true},
		Timestamp: time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC),
	}
	if _, ok := f.channels[channelID]; ok {
		f.history[channelID] = append(f.history[channelID], m)
	}
	return m, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDM != nil {
		return nil, f.failDM
	}
	f.dms = append(f.dms, recipientID)
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response{InteractionID: interaction.ID, Type: resp.Type, Data: resp.Data})
	return nil
}

func (f *fakeSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, response{
		InteractionID: interaction.ID,
		Data:          &discordgo.InteractionResponseData{Content: data.Content, Flags: data.Flags},
	})
	if f.failFollowup != nil {
		return nil, f.failFollowup
	}
	return &discordgo.Message{ID: f.newID()}, nil
}

func (f *fakeSession) responsesFor(interactionID string) []response {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []response
	for _, r := range f.responses {
		if r.InteractionID == interactionID {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSession) lastResponse(t *testing.T) response {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		t.Fatal("no interaction responses")
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeSession) lastFollowup(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.followups) == 0 {
		t.Fatal("no followups")
	}
	return f.followups[len(f.followups)-1].Data.Content
}

func (f *fakeSession) followupsFor(interactionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.followups {
		if r.InteractionID == interactionID {
			out = append(out, r.Data.Content)
		}
	}
	return out
}

func (f *fakeSession) sentTo(channelID string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

type recordingIndex struct {
	mu      sync.Mutex
	entries []storage.TranscriptEntry
	err     error
}

func (r *recordingIndex) Close() error { return nil }

func (r *recordingIndex) RecordTranscript(_ context.Context, e storage.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

func (r *recordingIndex) RecentTranscripts(_ context.Context, guildID string, limit int) ([]storage.TranscriptEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []storage.TranscriptEntry
	for n := len(r.entries) - 1; n >= 0 && len(out) < limit; n-- {
		if r.entries[n].GuildID == guildID {
			out = append(out, r.entries[n])
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	app    *App
	fake   *fakeSession
	index  *recordingIndex
	events *recordingPublisher
	slept  []time.Duration
	mu     sync.Mutex
	seq    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Tickets: config.TicketsConfig{
			LogChannel:      logChannel,
			SupportRole:     supportRole,
			CategoryName:    "TICKETS",
			TranscriptDir:   t.TempDir(),
			CloseDelay:      time.Second,
			ConfirmTTL:      time.Minute,
			ConfirmCapacity: 64,
		},
	}
	h := &harness{
		fake:   newFakeSession(),
		index:  &recordingIndex{},
		events: &recordingPublisher{},
	}
	h.fake.addChannel(&discordgo.Channel{ID: logChannel, GuildID: testGuild, Name: "ticket-logs", Type: discordgo.ChannelTypeGuildText})
	h.app = New(h.fake, cfg, nil, lang.Default(), Deps{Index: h.index, Events: h.events})
	h.app.sleep = func(d time.Duration) {
		h.mu.Lock()
		h.slept = append(h.slept, d)
		h.mu.Unlock()
	}
	h.app.now = func() time.Time { return time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC) }
	return h
}

func (h *harness) interactionID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return "interaction-" + strconv.Itoa(h.seq)
}

func newUser(id, name string) *discordgo.User {
	return &discordgo.User{ID: id, Username: name, Discriminator: "0"}
}

func newMember(u *discordgo.User, perms int64, roles ...string) *discordgo.Member {
	return &discordgo.Member{User: u, Permissions: perms, Roles: roles}
}

func (h *harness) slash(m *discordgo.Member, channelID, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        h.interactionID(),
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   testGuild,
		ChannelID: channelID,
		Member:    m,
		Data:      discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func (h *harness) click(m *discordgo.Member, channelID, customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        h.interactionID(),
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   testGuild,
		ChannelID: channelID,
		Member:    m,
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
	}}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func intOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}

// openTicket presses Open Ticket as m and returns the new channel.
func (h *harness) openTicket(t *testing.T, m *discordgo.Member) *discordgo.Channel {
	t.Helper()
	h.app.Handle(h.click(m, "200", customOpen))
	h.fake.mu.Lock()
	defer h.fake.mu.Unlock()
	for n := len(h.fake.made) - 1; n >= 0; n-- {
		if h.fake.made[n].Type == discordgo.ChannelTypeGuildText {
			return h.fake.made[n]
		}
	}
	t.Fatal("no ticket channel created")
	return nil
}

// confirmToken presses Close Ticket as m and returns the confirmation token
// offered in the ephemeral prompt.
func (h *harness) confirmToken(t *testing.T, m *discordgo.Member, channelID string) string {
	t.Helper()
	click := h.click(m, channelID, customClose+":"+channelID)
	h.app.Handle(click)
	rs := h.fake.responsesFor(click.ID)
	if len(rs) != 1 || len(rs[0].Data.Components) != 1 {
		t.Fatalf("close prompt responses = %+v", rs)
	}
	row := rs[0].Data.Components[0].(discordgo.ActionsRow)
	confirm := row.Components[0].(discordgo.Button)
	return confirm.CustomID[len(customConfirm)+1:]
}
