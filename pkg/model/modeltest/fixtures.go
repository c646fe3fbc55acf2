// Package modeltest builds small game models for tests.
package modeltest

import "github.com/helmcode/gamemodel-ai/pkg/model"

func Str(s string) *string { return &s }

func Prob(p float64) *float64 { return &p }

func Leaf(id, summary string, utilities map[string]float64) *model.GameNode {
	return &model.GameNode{
		ID:         id,
		IsTerminal: true,
		Payoff:     &model.Payoff{OutcomeSummary: summary, Utilities: utilities},
	}
}

func Decision(id, player string, actions ...model.Action) *model.GameNode {
	return &model.GameNode{ID: id, CurrentPlayerName: Str(player), Actions: actions}
}

func Move(name string, next *model.GameNode) model.Action {
	return model.Action{Name: name, NextNode: next}
}

func Chance(name string, p float64, next *model.GameNode) model.Action {
	return model.Action{Name: name, Probability: Prob(p), NextNode: next}
}

func players(names ...string) []model.Player {
	out := make([]model.Player, 0, len(names))
	for _, n := range names {
		role := model.RoleDecisionMaker
		if n == "Nature" {
			role = model.RoleNature
		}
		out = append(out, model.Player{Name: n, Role: role})
	}
	return out
}

// OneShot is A choosing Cooperate or Defect with B never moving.
func OneShot() *model.GameAnalysis {
	return &model.GameAnalysis{
		Title:            "One-shot choice",
		StrategicSummary: "A decides alone; B lives with the result",
		Players:          players("A", "B"),
		GameType:         model.ExtensiveForm,
		GameTree: Decision("root", "A",
			Move("Cooperate", Leaf("t1", "both gain", map[string]float64{"A": 10, "B": 10})),
			Move("Defect", Leaf("t2", "both lose", map[string]float64{"A": -5, "B": -5})),
		),
		ConfidenceScore: 80,
	}
}

// Entry is the market entry game: the entrant moves, then the incumbent
// answers entry.
func Entry() *model.GameAnalysis {
	return &model.GameAnalysis{
		Title:            "Market entry",
		StrategicSummary: "An entrant weighs entering a market an incumbent may defend",
		Players:          players("Entrant", "Incumbent"),
		GameType:         model.ExtensiveForm,
		GameTree: Decision("root", "Entrant",
			Move("Enter", Decision("inc", "Incumbent",
				Move("Fight", Leaf("t1", "price war", map[string]float64{"Entrant": -10, "Incumbent": -10})),
				Move("Accommodate", Leaf("t2", "shared market", map[string]float64{"Entrant": 20, "Incumbent": 30})),
			)),
			Move("Stay out", Leaf("t3", "monopoly", map[string]float64{"Entrant": 0, "Incumbent": 60})),
		),
		ConfidenceScore:            75,
		NashEquilibriumExplanation: "Enter and Accommodate is the subgame perfect equilibrium.",
	}
}

// Lottery has A choose between a sure thing and a gamble decided by Nature
// with the given probabilities.
func Lottery(pWin, pLose float64) *model.GameAnalysis {
	return &model.GameAnalysis{
		Title:    "Court gamble",
		Players:  players("A", "B", "Nature"),
		GameType: model.ExtensiveForm,
		GameTree: Decision("root", "A",
			Move("Settle", Leaf("t1", "settlement", map[string]float64{"A": 10, "B": 10})),
			Move("Sue", Decision("court", "Nature",
				Chance("A wins", pWin, Leaf("t2", "A wins in court", map[string]float64{"A": 50, "B": -50})),
				Chance("B wins", pLose, Leaf("t3", "B wins in court", map[string]float64{"A": -40, "B": 20})),
			)),
		),
		ConfidenceScore: 60,
	}
}

// Repeated lets A move again after B, which has no normal form reduction.
func Repeated() *model.GameAnalysis {
	a := Entry()
	a.Title = "Negotiation"
	a.Players = players("A", "B")
	a.GameTree = Decision("root", "A",
		Move("Offer", Decision("b", "B",
			Move("Reject", Decision("a2", "A",
				Move("Raise", Leaf("t1", "raised deal", map[string]float64{"A": 5, "B": 15})),
				Move("Walk", Leaf("t2", "no deal", map[string]float64{"A": 0, "B": 0})),
			)),
			Move("Accept", Leaf("t3", "deal", map[string]float64{"A": 10, "B": 10})),
		)),
		Move("Wait", Leaf("t4", "status quo", map[string]float64{"A": 1, "B": 1})),
	)
	return a
}

// Matrix is the prisoner's dilemma in normal form.
func Matrix() *model.GameAnalysis {
	u := func(a, b float64) model.Payoff {
		return model.Payoff{Utilities: map[string]float64{"A": a, "B": b}}
	}
	return &model.GameAnalysis{
		Title:    "Prisoner's dilemma",
		Players:  players("A", "B"),
		GameType: model.NormalForm,
		NormalForm: &model.NormalFormGame{
			Strategies: []model.StrategySet{
				{Player: "A", Strategies: []string{"Cooperate", "Defect"}},
				{Player: "B", Strategies: []string{"Cooperate", "Defect"}},
			},
			Outcomes: []model.ProfileOutcome{
				{Profile: []string{"Cooperate", "Cooperate"}, Payoff: u(-1, -1)},
				{Profile: []string{"Cooperate", "Defect"}, Payoff: u(-10, 0)},
				{Profile: []string{"Defect", "Cooperate"}, Payoff: u(0, -10)},
				{Profile: []string{"Defect", "Defect"}, Payoff: u(-5, -5)},
			},
		},
		ConfidenceScore: 90,
	}
}
