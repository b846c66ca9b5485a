package visibility

import (
	"testing"

	"github.com/ritzzi23/clawfin/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestForSeller(t *testing.T) {
	history := []session.Turn{
		{Sender: "ClawBot", Content: "@S1 @S2 what's your best price?"},
		{Sender: "S2", Content: "$250 refurbished"},
		{Sender: "S1", Content: "$260 with warranty"},
		{Sender: "alice", Content: "no refurbished please"},
		{Sender: "ClawBot", Content: "S2 offered $250, can you beat that?"},
	}

	got := ForSeller(history, "ClawBot", "S1")

	var senders []string
	for _, turn := range got {
		senders = append(senders, turn.Sender)
	}
	assert.Equal(t, []string{"ClawBot", "S1", "ClawBot"}, senders)
	assert.Equal(t, "S2 offered $250, can you beat that?", got[2].Content)
}

func TestForSeller_Empty(t *testing.T) {
	assert.Empty(t, ForSeller(nil, "ClawBot", "S1"))
}
