package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantProduct string
		wantBudget  float64
		wantMin     float64
		wantErr     error
	}{
		{
			name:        "right-most trigger wins",
			text:        "Find me the best deal on Widget X, budget $300",
			wantProduct: "Widget X",
			wantBudget:  300,
			wantMin:     210,
		},
		{
			name:        "best price on",
			text:        "what's the best price on AirPods, budget $200",
			wantProduct: "AirPods",
			wantBudget:  200,
			wantMin:     140,
		},
		{
			name:        "article and for-dollar terminator",
			text:        "get me a laptop for $1,200.50",
			wantProduct: "laptop",
			wantBudget:  1200.50,
			wantMin:     840,
		},
		{
			name:        "bucks budget with under qualifier",
			text:        "Negotiate a Sony TV under 400 bucks",
			wantProduct: "Sony TV",
			wantBudget:  400,
			wantMin:     280,
		},
		{
			name:        "max qualifier",
			text:        "find me AirPods Pro max 199 dollars",
			wantProduct: "AirPods Pro",
			wantBudget:  199,
			wantMin:     139,
		},
		{
			name:    "no budget",
			text:    "find me a good laptop",
			wantErr: ErrNoBudget,
		},
		{
			name:    "no product trigger",
			text:    "what costs $300?",
			wantErr: ErrNoProduct,
		},
		{
			name:    "zero budget",
			text:    "find me a pen for $0",
			wantErr: ErrNoBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest(tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProduct, req.ProductName)
			assert.Equal(t, tt.wantBudget, req.Budget)
			assert.Equal(t, tt.wantMin, req.MinExpected)
			assert.Equal(t, 1, req.Quantity)
		})
	}
}

func TestIsTrigger(t *testing.T) {
	assert.True(t, IsTrigger("Can you FIND ME a deal", DefaultTriggerPhrases))
	assert.True(t, IsTrigger("what's the best price here", DefaultTriggerPhrases))
	assert.False(t, IsTrigger("hello everyone", DefaultTriggerPhrases))
	assert.False(t, IsTrigger("find me", nil))
}

func TestIsConstraintUpdate(t *testing.T) {
	tests := []struct {
		text   string
		active bool
		want   bool
	}{
		{"No refurbished units", true, true},
		{"only sealed boxes", true, true},
		{"It must have noise cancelling", true, true},
		{"my budget is now $250", true, true},
		{"I'd prefer black", true, true},
		{"ship without the charger", true, true},
		{"not refurbished please", true, true},
		{"only with warranty", true, true},
		{"sounds good", true, false},
		{"no refurbished units", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsConstraintUpdate(tt.text, tt.active), tt.text)
	}
}

func TestConstraintAck(t *testing.T) {
	assert.Equal(t,
		`✅ Noted! Constraint added: "no refurbished". Adjusting negotiation parameters...`,
		ConstraintAck("no refurbished"))
}
