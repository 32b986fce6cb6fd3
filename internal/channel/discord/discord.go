package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/taskmind/taskmind-gateway/internal/channel"
)

// Adapter bridges Discord DMs and mentions into the gateway.
type Adapter struct {
	token    string
	session  *discordgo.Session
	incoming chan *channel.Message
	stopCh   chan struct{}
	stopOnce sync.Once
	handlers sync.WaitGroup
}

func New(token string) *Adapter {
	return &Adapter{
		token:    token,
		incoming: make(chan *channel.Message, 100),
		stopCh:   make(chan struct{}),
	}
}

func (a *Adapter) Name() string { return "discord" }

func (a *Adapter) IsEnabled() bool { return a.token != "" }

func (a *Adapter) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + a.token)
	if err != nil {
		return err
	}
	a.session = session

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		a.handlers.Add(1)
		defer a.handlers.Done()

		select {
		case <-a.stopCh:
			return
		default:
		}
		if m.Author.Bot {
			return
		}
		// Guild messages only count when the bot is mentioned; DMs always do.
		if m.GuildID != "" && !a.isMentioned(s.State.User.ID, m.Mentions) {
			return
		}

		inbound := &channel.Message{
			ID:      m.ID,
			Channel: "discord",
			UserID:  m.Author.ID,
			Content: m.Content,
			Metadata: map[string]string{
				"guild_id":    m.GuildID,
				"channel_id":  m.ChannelID,
				"author_name": m.Author.Username,
			},
			Timestamp: m.Timestamp.Unix(),
		}
		select {
		case a.incoming <- inbound:
		case <-a.stopCh:
		}
	})

	if err := session.Open(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		a.closeSession()
	}()

	return nil
}

// Stop waits for in-flight message handlers before closing the inbound
// channel, so no handler is left sending on a closed channel.
func (a *Adapter) Stop() error {
	a.closeSession()
	a.handlers.Wait()
	close(a.incoming)
	return nil
}

func (a *Adapter) closeSession() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
		if a.session != nil {
			a.session.Close()
		}
	})
}

func (a *Adapter) SendMessage(userID string, resp *channel.Response) error {
	dm, err := a.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = a.session.ChannelMessageSend(dm.ID, resp.Content)
	return err
}

func (a *Adapter) Incoming() <-chan *channel.Message {
	return a.incoming
}

func (a *Adapter) isMentioned(botID string, mentions []*discordgo.User) bool {
	for _, mention := range mentions {
		if mention.ID == botID {
			return true
		}
	}
	return false
}
