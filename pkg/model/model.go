package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role says whether a player chooses rationally or stands in for chance.
type Role string

const (
	RoleDecisionMaker Role = "decision_maker"
	RoleNature        Role = "nature"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleDecisionMaker || r == RoleNature
}

// GameType selects the representation carried by a GameAnalysis.
type GameType string

const (
	ExtensiveForm GameType = "extensive_form"
	NormalForm    GameType = "normal_form"
)

// Valid reports whether t is a known game type.
func (t GameType) Valid() bool {
	return t == ExtensiveForm || t == NormalForm
}

// UnmarshalJSON accepts any casing, so "Extensive_Form" decodes too.
func (t *GameType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("game_type: %w", err)
	}
	*t = GameType(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (t *GameType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("game_type: %w", err)
	}
	*t = GameType(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

type Player struct {
	Name        string `json:"name" yaml:"name"`
	Role        Role   `json:"role" yaml:"role"`
	Description string `json:"description" yaml:"description"`
}

// Payoff is the outcome at a leaf. Utilities are cardinal (VNM) values
// keyed by player name.
type Payoff struct {
	OutcomeSummary string             `json:"outcome_summary" yaml:"outcome_summary"`
	Utilities      map[string]float64 `json:"utilities" yaml:"utilities"`
}

// Action is an edge of the game tree. It owns NextNode exclusively.
// Probability is set only when the parent node is moved by nature.
type Action struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Probability *float64  `json:"probability,omitempty" yaml:"probability,omitempty"`
	NextNode    *GameNode `json:"next_node" yaml:"next_node"`
}

// GameNode is a decision, chance or terminal node.
type GameNode struct {
	ID                string   `json:"id" yaml:"id"`
	CurrentPlayerName *string  `json:"current_player_name,omitempty" yaml:"current_player_name,omitempty"`
	IsTerminal        bool     `json:"is_terminal" yaml:"is_terminal"`
	Actions           []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
	Payoff            *Payoff  `json:"payoff,omitempty" yaml:"payoff,omitempty"`
}

// Mover returns the name of the player moving at n, or "" if unset.
func (n *GameNode) Mover() string {
	if n == nil || n.CurrentPlayerName == nil {
		return ""
	}
	return *n.CurrentPlayerName
}

// StrategySet lists the pure strategies available to one player.
type StrategySet struct {
	Player     string   `json:"player" yaml:"player"`
	Strategies []string `json:"strategies" yaml:"strategies"`
}

// ProfileOutcome maps one strategy profile to its payoff. Profile[i] is a
// strategy of NormalFormGame.Strategies[i].Player.
type ProfileOutcome struct {
	Profile []string `json:"profile" yaml:"profile"`
	Payoff  Payoff   `json:"payoff" yaml:"payoff"`
}

// NormalFormGame is the matrix representation of a game.
type NormalFormGame struct {
	Strategies []StrategySet    `json:"strategies" yaml:"strategies"`
	Outcomes   []ProfileOutcome `json:"outcomes" yaml:"outcomes"`
}

// Lookup returns the outcome for profile, if present.
func (g *NormalFormGame) Lookup(profile ...string) (*ProfileOutcome, bool) {
	if g == nil {
		return nil, false
	}
	key := ProfileKey(profile)
	for i := range g.Outcomes {
		if ProfileKey(g.Outcomes[i].Profile) == key {
			return &g.Outcomes[i], true
		}
	}
	return nil, false
}

// ProfileKey joins a profile into a single comparable key.
func ProfileKey(profile []string) string {
	return strings.Join(profile, "\x1f")
}

// GameAnalysis is the top-level artifact produced by the pipeline.
type GameAnalysis struct {
	Title                      string          `json:"title" yaml:"title"`
	StrategicSummary           string          `json:"strategic_summary" yaml:"strategic_summary"`
	Players                    []Player        `json:"players" yaml:"players"`
	GameType                   GameType        `json:"game_type" yaml:"game_type"`
	GameTree                   *GameNode       `json:"game_tree,omitempty" yaml:"game_tree,omitempty"`
	NormalForm                 *NormalFormGame `json:"normal_form,omitempty" yaml:"normal_form,omitempty"`
	ConfidenceScore            int             `json:"confidence_score" yaml:"confidence_score"`
	NashEquilibriumExplanation string          `json:"nash_equilibrium_explanation,omitempty" yaml:"nash_equilibrium_explanation,omitempty"`
	ActualEventsComparison     string          `json:"actual_events_comparison,omitempty" yaml:"actual_events_comparison,omitempty"`
}

// Player returns the declared player with the given name.
func (a *GameAnalysis) Player(name string) (Player, bool) {
	if a == nil {
		return Player{}, false
	}
	for _, p := range a.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// DecisionMakers returns the names of all rational players in declaration order.
func (a *GameAnalysis) DecisionMakers() []string {
	if a == nil {
		return nil
	}
	var names []string
	for _, p := range a.Players {
		if p.Role == RoleDecisionMaker {
			names = append(names, p.Name)
		}
	}
	return names
}
