package bot

import (
	"context"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages longer than this.
const maxMessageLen = 2000

// Minimal session interface for sending channel messages.
type messageSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type channelSender struct {
	session messageSession
	pause   func() time.Duration
}

func newChannelSender(session messageSession) *channelSender {
	return &channelSender{
		session: session,
		pause:   func() time.Duration { return time.Duration(300+rand.Intn(500)) * time.Millisecond },
	}
}

func (c *channelSender) Send(ctx context.Context, channelID, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := c.sendWithRetry(ctx, channelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *channelSender) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pause()):
		}
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var buf strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if buf.Len() > 0 {
				chunks = append(chunks, buf.String())
				buf.Reset()
			}
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if buf.Len()+len(line) > limit {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteString(line)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
