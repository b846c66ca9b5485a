// Package bot connects negotiation agents to Discord. Each party runs its own
// Bot with its own token; a channel is one conversation.
package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/ritzzi23/clawfin/internal/chat"
)

// CommandSet is a group of slash commands served by one bot.
type CommandSet interface {
	Definitions() []*discordgo.ApplicationCommand
	HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate)
}

type Bot struct {
	name     string
	session  *discordgo.Session
	sender   *channelSender
	dispatch *dispatcher
	commands CommandSet
	cancel   context.CancelFunc
}

// New creates a bot for the party called name. Call Handle before Start.
func New(name, token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session for %s: %w", name, err)
	}

	b := &Bot{
		name:    name,
		session: session,
		sender:  newChannelSender(session),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)

	// Handlers run on the gateway goroutine so a channel's messages reach the
	// dispatcher in order; the dispatcher moves the work off it.
	session.SyncEvents = true
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return b, nil
}

// Sender posts into channels as this bot.
func (b *Bot) Sender() chat.Sender {
	return b.sender
}

func (b *Bot) Handle(h chat.Handler) {
	b.dispatch = newDispatcher(h, 5*time.Minute)
}

// Commands registers slash commands in every guild the bot joins.
func (b *Bot) Commands(c CommandSet) {
	b.commands = c
}

// Start opens the gateway. Handlers run on a context derived from ctx that
// is cancelled by Stop.
func (b *Bot) Start(ctx context.Context) error {
	if b.dispatch == nil {
		return fmt.Errorf("bot %s has no message handler", b.name)
	}
	ctx, b.cancel = context.WithCancel(ctx)
	b.dispatch.ctx = ctx
	if err := b.session.Open(); err != nil {
		b.cancel()
		return fmt.Errorf("failed to open discord session for %s: %w", b.name, err)
	}
	log.Printf("%s: discord bot is running", b.name)
	return nil
}

func (b *Bot) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	err := b.session.Close()
	if b.dispatch != nil {
		b.dispatch.wait()
	}
	return err
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s: connected as %s", b.name, event.User.Username)

	for _, guild := range event.Guilds {
		b.registerGuildCommands(s, guild.ID)
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.registerGuildCommands(s, event.ID)
}

func (b *Bot) registerGuildCommands(s *discordgo.Session, guildID string) {
	if b.commands == nil {
		return
	}
	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, b.commands.Definitions()); err != nil {
		log.Printf("%s: failed to register commands for guild %s: %v", b.name, guildID, err)
		return
	}
	log.Printf("%s: registered application commands for guild %s", b.name, guildID)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.commands == nil {
		return
	}
	b.commands.HandleInteraction(s, i)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	msg, ok := toMessage(m, selfID)
	if !ok {
		return
	}
	b.dispatch.dispatch(msg)
}

// toMessage converts a Discord message, dropping our own and empty ones.
func toMessage(m *discordgo.MessageCreate, selfID string) (chat.Message, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return chat.Message{}, false
	}
	if m.Author.ID == selfID || m.Content == "" {
		return chat.Message{}, false
	}
	return chat.Message{
		ConversationID: m.ChannelID,
		SenderID:       m.Author.ID,
		SenderName:     m.Author.Username,
		Text:           m.Content,
		Timestamp:      m.Timestamp,
	}, true
}
