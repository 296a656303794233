package replay

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/bjtrainer/internal/deck"
	"github.com/lox/bjtrainer/internal/protocol"
)

// AnyToken is an Expect value that accepts whatever the client sends.
const AnyToken = "*"

// Step is one exchange in a replay script. If Expect is set the server first
// waits for the next client token and compares it; then every frame in Send
// is written verbatim.
type Step struct {
	Expect string   `hcl:"expect,optional"`
	Send   []string `hcl:"send,optional"`
}

// Script is a recorded game session the replay server plays to each client.
type Script struct {
	Name  string `hcl:"name,optional"`
	Steps []Step `hcl:"step,block"`
}

// Matches reports whether token satisfies the step's expectation.
func (s Step) Matches(token string) bool {
	return s.Expect == AnyToken || s.Expect == token
}

// LoadScript parses a replay script from an HCL file:
//
//	name = "double down"
//	step {
//	  expect = "console"
//	  send   = ["{\"type\":\"state\",\"balance\":1000,\"bet\":10}"]
//	}
func LoadScript(filename string) (*Script, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("script not found: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var script Script
	diags = gohcl.DecodeBody(file.Body, nil, &script)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// Validate checks that the script has steps and every sent frame decodes.
// Frames with an unknown type are allowed so scripts can replay events newer
// clients understand.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script has no steps")
	}
	for i, step := range s.Steps {
		for j, frame := range step.Send {
			if _, err := protocol.Decode([]byte(frame)); err != nil && !errors.Is(err, protocol.ErrUnknownEventType) {
				return fmt.Errorf("step %d frame %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// Expectations returns the number of steps that wait for a client token.
func (s *Script) Expectations() int {
	n := 0
	for _, step := range s.Steps {
		if step.Expect != "" {
			n++
		}
	}
	return n
}

func frames(events ...any) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = protocol.MustMarshal(ev)
	}
	return out
}

func wire(cards ...deck.Card) []protocol.Card {
	out := make([]protocol.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Wire()
	}
	return out
}

// DefaultScript is a single hand: the player stands on 19 against a dealer
// 17 and wins their bet.
func DefaultScript() *Script {
	tenH := deck.NewCard(deck.Hearts, deck.Ten)
	nineS := deck.NewCard(deck.Spades, deck.Nine)
	sevenC := deck.NewCard(deck.Clubs, deck.Seven)
	kingD := deck.NewCard(deck.Diamonds, deck.King)

	hitStand := &protocol.Actions{Actions: []protocol.Action{
		{Code: "h", Label: "Hit"},
		{Code: "s", Label: "Stand"},
		{Code: "d", Label: "Double"},
	}}

	playerValue, _ := deck.HandValue([]deck.Card{tenH, nineS})
	dealerValue, _ := deck.HandValue([]deck.Card{kingD, sevenC})

	return &Script{
		Name: "stand on nineteen",
		Steps: []Step{
			{
				Expect: protocol.ModeConsole,
				Send: frames(
					&protocol.Text{Text: "Welcome to the blackjack trainer"},
					&protocol.State{Balance: ptr(1000), Bet: ptr(10)},
				),
			},
			{
				Expect: AnyToken,
				Send: frames(
					&protocol.Hand{Owner: protocol.OwnerPlayer, Cards: wire(tenH, nineS), Value: playerValue},
					&protocol.CardShown{Card: ptr(kingD.Wire()), FaceDown: true},
					&protocol.Text{Text: "Card Count: -1"},
					hitStand,
				),
			},
			{
				Expect: "s",
				Send: frames(
					&protocol.Actions{Actions: []protocol.Action{}},
					&protocol.Hand{Owner: protocol.OwnerDealer, Cards: wire(kingD, sevenC), Value: dealerValue},
					&protocol.Result{Outcome: protocol.OutcomeWin, Profit: 10},
					&protocol.State{Balance: ptr(1010)},
				),
			},
		},
	}
}

func ptr[T any](v T) *T { return &v }
