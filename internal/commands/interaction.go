package commands

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"
)

// HandleInteraction answers a slash command registered by Definitions.
func (s *Service) HandleInteraction(ds *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	content, ok := s.answer(context.Background(), i.ChannelID, i.ApplicationCommandData())
	if !ok {
		return
	}

	err := ds.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
	if err != nil {
		log.Printf("commands: failed to respond to /%s: %v", i.ApplicationCommandData().Name, err)
	}
}

func (s *Service) answer(ctx context.Context, channelID string, data discordgo.ApplicationCommandInteractionData) (string, bool) {
	switch data.Name {
	case "status":
		return s.Status(ctx, channelID), true
	case "cancel":
		return s.Cancel(ctx, channelID), true
	case "deals":
		count := 0
		for _, opt := range data.Options {
			if opt.Name == "count" {
				count = int(opt.IntValue())
			}
		}
		return s.RecentDeals(ctx, count), true
	}
	return "", false
}
