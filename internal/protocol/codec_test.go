package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("actions", func(t *testing.T) {
		v, err := Decode([]byte(`{"type":"actions","actions":[{"code":"h","label":"Hit"},{"code":"s","label":"Stand"}]}`))
		require.NoError(t, err)

		msg, ok := v.(*Actions)
		require.True(t, ok)
		assert.Equal(t, []Action{{Code: "h", Label: "Hit"}, {Code: "s", Label: "Stand"}}, msg.Actions)
	})

	t.Run("hand", func(t *testing.T) {
		v, err := Decode([]byte(`{"type":"hand","owner":"dealer","cards":[{"rank":"K","suit":"♠"},{"rank":"7","suit":"♡"}],"value":17}`))
		require.NoError(t, err)

		msg := v.(*Hand)
		assert.Equal(t, OwnerDealer, msg.Owner)
		assert.Len(t, msg.Cards, 2)
		assert.Equal(t, 17, msg.Value)
	})

	t.Run("card shown without card", func(t *testing.T) {
		v, err := Decode([]byte(`{"type":"card_shown","faceDown":true}`))
		require.NoError(t, err)

		msg := v.(*CardShown)
		assert.Nil(t, msg.Card)
		assert.True(t, msg.FaceDown)
	})

	t.Run("state with only balance", func(t *testing.T) {
		v, err := Decode([]byte(`{"type":"state","balance":990}`))
		require.NoError(t, err)

		msg := v.(*State)
		require.NotNil(t, msg.Balance)
		assert.Equal(t, 990, *msg.Balance)
		assert.Nil(t, msg.Bet)
	})

	t.Run("result with negative profit", func(t *testing.T) {
		v, err := Decode([]byte(`{"type":"result","outcome":"loss","profit":-10}`))
		require.NoError(t, err)

		msg := v.(*Result)
		assert.Equal(t, OutcomeLoss, msg.Outcome)
		assert.Equal(t, -10.0, msg.Profit)
	})

	t.Run("plain text is a decode error", func(t *testing.T) {
		_, err := Decode([]byte("Dealer's Hand: K♠"))

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "Dealer's Hand: K♠", string(decodeErr.Payload))
	})

	t.Run("missing type is a decode error", func(t *testing.T) {
		_, err := Decode([]byte(`{"text":"hello"}`))

		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("bad hand owner", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"hand","owner":"table","cards":[],"value":0}`))

		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"shoe_shuffled"}`))
		assert.True(t, errors.Is(err, ErrUnknownEventType))
	})
}

func TestMarshalFillsType(t *testing.T) {
	data, err := Marshal(&Actions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"actions","actions":[]}`, string(data))

	bet := 25
	data, err = Marshal(&State{Bet: &bet})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"state","bet":25}`, string(data))

	_, err = Marshal(struct{}{})
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestCardPoints(t *testing.T) {
	tests := []struct {
		card Card
		want int
	}{
		{Card{Rank: "A", Suit: "♠"}, 11},
		{Card{Rank: "K", Suit: "♡"}, 10},
		{Card{Rank: "10", Suit: "♢"}, 10},
		{Card{Rank: "7", Suit: "♧"}, 7},
		{Card{Rank: "A", Suit: "♠", Value: 1}, 1},
		{Card{Rank: "?", Suit: "?"}, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.card.Points(), tt.card.String())
	}
}

func TestBetToken(t *testing.T) {
	assert.Equal(t, "0", BetToken(0))
	assert.Equal(t, "150", BetToken(150))
}

func TestSimulateRequestDefaults(t *testing.T) {
	req := SimulateRequest{NumGames: 50}.WithDefaults()

	assert.Equal(t, SimulateRequest{NumGames: 50, Balance: 1000, BetAmount: 10, NumDecks: 8}, req)
	assert.NoError(t, req.Validate())

	assert.Error(t, SimulateRequest{NumGames: -1, Balance: 1, NumDecks: 1}.Validate())
	assert.Error(t, SimulateRequest{NumGames: 1, Balance: 1, NumDecks: 0}.Validate())
	assert.Error(t, SimulateRequest{NumGames: 1, Balance: 1, NumDecks: 1, BetAmount: -5}.Validate())
}
