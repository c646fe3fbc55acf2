package model

import (
	"fmt"
	"math"
)

// FieldError reports a malformed single field. It never describes
// inconsistencies between fields; those are validator violations.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

func fieldErr(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NewPlayer builds a Player, rejecting an empty name or unknown role.
func NewPlayer(name string, role Role, description string) (Player, error) {
	p := Player{Name: name, Role: role, Description: description}
	if err := checkPlayer("player", p); err != nil {
		return Player{}, err
	}
	return p, nil
}

// NewPayoff builds a Payoff. Utilities must be finite numbers.
func NewPayoff(outcomeSummary string, utilities map[string]float64) (Payoff, error) {
	p := Payoff{OutcomeSummary: outcomeSummary, Utilities: copyUtilities(utilities)}
	if err := checkPayoff("payoff", &p); err != nil {
		return Payoff{}, err
	}
	return p, nil
}

// NewAction builds a deterministic action leading to next.
func NewAction(name, description string, next *GameNode) (Action, error) {
	if name == "" {
		return Action{}, fieldErr("action.name", "must not be empty")
	}
	return Action{Name: name, Description: description, NextNode: next}, nil
}

// NewChanceAction builds an action taken by nature with probability p.
func NewChanceAction(name, description string, p float64, next *GameNode) (Action, error) {
	a, err := NewAction(name, description, next)
	if err != nil {
		return Action{}, err
	}
	if err := checkProbability("action.probability", p); err != nil {
		return Action{}, err
	}
	a.Probability = &p
	return a, nil
}

// NewTerminalNode builds a leaf carrying payoff.
func NewTerminalNode(id string, payoff Payoff) (*GameNode, error) {
	if id == "" {
		return nil, fieldErr("node.id", "must not be empty")
	}
	p := payoff
	p.Utilities = copyUtilities(payoff.Utilities)
	return &GameNode{ID: id, IsTerminal: true, Payoff: &p}, nil
}

// NewDecisionNode builds a node where player chooses among actions.
func NewDecisionNode(id, player string, actions ...Action) (*GameNode, error) {
	if id == "" {
		return nil, fieldErr("node.id", "must not be empty")
	}
	if player == "" {
		return nil, fieldErr("node.current_player_name", "must not be empty")
	}
	mover := player
	return &GameNode{
		ID:                id,
		CurrentPlayerName: &mover,
		Actions:           append([]Action(nil), actions...),
	}, nil
}

// NewAnalysis builds the top-level record. The caller attaches GameTree or
// NormalForm afterwards.
func NewAnalysis(title, strategicSummary string, players []Player, gameType GameType, confidence int) (*GameAnalysis, error) {
	if !gameType.Valid() {
		return nil, fieldErr("game_type", "unknown value %q", gameType)
	}
	if err := checkConfidence(confidence); err != nil {
		return nil, err
	}
	for i, p := range players {
		if err := checkPlayer(fmt.Sprintf("players[%d]", i), p); err != nil {
			return nil, err
		}
	}
	return &GameAnalysis{
		Title:            title,
		StrategicSummary: strategicSummary,
		Players:          append([]Player(nil), players...),
		GameType:         gameType,
		ConfidenceScore:  confidence,
	}, nil
}

// Finalize applies every single-field check to a decoded candidate and
// returns a deep copy that callers treat as read-only. Structural
// consistency is expected to have been established by the validator.
func Finalize(a *GameAnalysis) (*GameAnalysis, error) {
	if a == nil {
		return nil, fieldErr("analysis", "must not be nil")
	}
	if !a.GameType.Valid() {
		return nil, fieldErr("game_type", "unknown value %q", a.GameType)
	}
	if err := checkConfidence(a.ConfidenceScore); err != nil {
		return nil, err
	}
	for i, p := range a.Players {
		if err := checkPlayer(fmt.Sprintf("players[%d]", i), p); err != nil {
			return nil, err
		}
	}
	if a.GameTree != nil {
		if err := checkNode("game_tree", a.GameTree); err != nil {
			return nil, err
		}
	}
	if a.NormalForm != nil {
		for i := range a.NormalForm.Outcomes {
			path := fmt.Sprintf("normal_form.outcomes[%d].payoff", i)
			if err := checkPayoff(path, &a.NormalForm.Outcomes[i].Payoff); err != nil {
				return nil, err
			}
		}
	}
	return a.Clone(), nil
}

func checkConfidence(c int) error {
	if c < 0 || c > 100 {
		return fieldErr("confidence_score", "%d outside [0,100]", c)
	}
	return nil
}

func checkPlayer(path string, p Player) error {
	if p.Name == "" {
		return fieldErr(path+".name", "must not be empty")
	}
	if !p.Role.Valid() {
		return fieldErr(path+".role", "unknown value %q", p.Role)
	}
	return nil
}

func checkProbability(path string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fieldErr(path, "%v outside [0,1]", p)
	}
	return nil
}

func checkPayoff(path string, p *Payoff) error {
	for name, u := range p.Utilities {
		if math.IsNaN(u) || math.IsInf(u, 0) {
			return fieldErr(fmt.Sprintf("%s.utilities[%s]", path, name), "not a finite number")
		}
	}
	return nil
}

func checkNode(path string, n *GameNode) error {
	if n.ID == "" {
		return fieldErr(path+".id", "must not be empty")
	}
	if n.Payoff != nil {
		if err := checkPayoff(path+".payoff", n.Payoff); err != nil {
			return err
		}
	}
	for i := range n.Actions {
		a := &n.Actions[i]
		ap := fmt.Sprintf("%s.actions[%d]", path, i)
		if a.Probability != nil {
			if err := checkProbability(ap+".probability", *a.Probability); err != nil {
				return err
			}
		}
		if a.NextNode != nil {
			if err := checkNode(ap+".next_node", a.NextNode); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy of a.
func (a *GameAnalysis) Clone() *GameAnalysis {
	if a == nil {
		return nil
	}
	out := *a
	out.Players = append([]Player(nil), a.Players...)
	out.GameTree = a.GameTree.Clone()
	if a.NormalForm != nil {
		nf := &NormalFormGame{}
		for _, s := range a.NormalForm.Strategies {
			nf.Strategies = append(nf.Strategies, StrategySet{
				Player:     s.Player,
				Strategies: append([]string(nil), s.Strategies...),
			})
		}
		for _, o := range a.NormalForm.Outcomes {
			nf.Outcomes = append(nf.Outcomes, ProfileOutcome{
				Profile: append([]string(nil), o.Profile...),
				Payoff:  Payoff{OutcomeSummary: o.Payoff.OutcomeSummary, Utilities: copyUtilities(o.Payoff.Utilities)},
			})
		}
		out.NormalForm = nf
	}
	return &out
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *GameNode) Clone() *GameNode {
	if n == nil {
		return nil
	}
	out := &GameNode{ID: n.ID, IsTerminal: n.IsTerminal}
	if n.CurrentPlayerName != nil {
		mover := *n.CurrentPlayerName
		out.CurrentPlayerName = &mover
	}
	if n.Payoff != nil {
		out.Payoff = &Payoff{OutcomeSummary: n.Payoff.OutcomeSummary, Utilities: copyUtilities(n.Payoff.Utilities)}
	}
	if n.Actions != nil {
		out.Actions = make([]Action, len(n.Actions))
		for i, a := range n.Actions {
			c := Action{Name: a.Name, Description: a.Description, NextNode: a.NextNode.Clone()}
			if a.Probability != nil {
				p := *a.Probability
				c.Probability = &p
			}
			out.Actions[i] = c
		}
	}
	return out
}

func copyUtilities(u map[string]float64) map[string]float64 {
	if u == nil {
		return nil
	}
	out := make(map[string]float64, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}
