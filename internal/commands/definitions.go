package commands

import "github.com/bwmarrin/discordgo"

func (s *Service) Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         "status",
			Description:  "Show the negotiation in this channel and the current ranking",
			DMPermission: boolPtr(false),
		},
		{
			Name:         "cancel",
			Description:  "Stop the negotiation running in this channel",
			DMPermission: boolPtr(false),
		},
		{
			Name:        "deals",
			Description: "List recently closed deals",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "How many deals to show",
					Required:    false,
					MinValue:    floatPtr(1),
					MaxValue:    maxDealCount,
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func floatPtr(f float64) *float64 {
	return &f
}
