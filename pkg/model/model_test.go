package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestGameTypeDecodingIgnoresCase(t *testing.T) {
	tests := []struct {
		in   string
		want GameType
	}{
		{`"extensive_form"`, ExtensiveForm},
		{`"Extensive_Form"`, ExtensiveForm},
		{`" NORMAL_FORM "`, NormalForm},
		{`"bayesian"`, GameType("bayesian")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got GameType
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("json: %v", err)
			}
			if got != tt.want {
				t.Errorf("json: got %q, want %q", got, tt.want)
			}

			var y struct {
				GameType GameType `yaml:"game_type"`
			}
			if err := yaml.Unmarshal([]byte("game_type: "+tt.in), &y); err != nil {
				t.Fatalf("yaml: %v", err)
			}
			if y.GameType != tt.want {
				t.Errorf("yaml: got %q, want %q", y.GameType, tt.want)
			}
		})
	}

	var gt GameType
	if err := json.Unmarshal([]byte(`42`), &gt); err == nil {
		t.Error("expected an error for a non-string game_type")
	}
}

func TestDecodeAnalysisDocument(t *testing.T) {
	doc := `{
	  "title": "Price war",
	  "strategic_summary": "two firms",
	  "players": [{"name": "A", "role": "decision_maker", "description": ""}, {"name": "Nature", "role": "nature"}],
	  "game_type": "Extensive_Form",
	  "game_tree": {
	    "id": "root", "current_player_name": "Nature", "is_terminal": false,
	    "actions": [
	      {"name": "Boom", "probability": 0.5, "next_node": {"id": "t1", "is_terminal": true, "payoff": {"outcome_summary": "up", "utilities": {"A": 5}}}},
	      {"name": "Bust", "probability": 0.5, "next_node": {"id": "t2", "is_terminal": true, "payoff": {"outcome_summary": "down", "utilities": {"A": -5}}}}
	    ]
	  },
	  "confidence_score": 40
	}`
	var a GameAnalysis
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.GameType != ExtensiveForm {
		t.Errorf("game type = %q", a.GameType)
	}
	if a.GameTree.Mover() != "Nature" || *a.GameTree.Actions[1].Probability != 0.5 {
		t.Errorf("unexpected tree %+v", a.GameTree)
	}
	if got := a.DecisionMakers(); !cmp.Equal(got, []string{"A"}) {
		t.Errorf("DecisionMakers = %v", got)
	}
	if p, ok := a.Player("Nature"); !ok || p.Role != RoleNature {
		t.Errorf("Player(Nature) = %+v, %v", p, ok)
	}
}

func TestConstructorsRejectMalformedFields(t *testing.T) {
	var fe *FieldError

	if _, err := NewPlayer("", RoleDecisionMaker, ""); !errors.As(err, &fe) || fe.Field != "player.name" {
		t.Errorf("NewPlayer empty name: %v", err)
	}
	if _, err := NewPlayer("A", "king", ""); !errors.As(err, &fe) || fe.Field != "player.role" {
		t.Errorf("NewPlayer bad role: %v", err)
	}
	if _, err := NewPayoff("x", map[string]float64{"A": math.Inf(1)}); !errors.As(err, &fe) {
		t.Errorf("NewPayoff infinite utility: %v", err)
	}
	if _, err := NewChanceAction("rain", "", 1.5, nil); !errors.As(err, &fe) || fe.Field != "action.probability" {
		t.Errorf("NewChanceAction p=1.5: %v", err)
	}
	if _, err := NewAction("", "", nil); err == nil {
		t.Error("NewAction accepted an empty name")
	}
	if _, err := NewTerminalNode("", Payoff{}); err == nil {
		t.Error("NewTerminalNode accepted an empty id")
	}
	if _, err := NewDecisionNode("n", ""); err == nil {
		t.Error("NewDecisionNode accepted an empty player")
	}
	if _, err := NewAnalysis("t", "", nil, "matrix", 50); err == nil {
		t.Error("NewAnalysis accepted an unknown game type")
	}
	if _, err := NewAnalysis("t", "", nil, NormalForm, -1); err == nil {
		t.Error("NewAnalysis accepted a negative confidence")
	}
}

func buildAnalysis(t *testing.T) *GameAnalysis {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	a1, err := NewPlayer("A", RoleDecisionMaker, "first mover")
	must(err)
	nat, err := NewPlayer("Nature", RoleNature, "")
	must(err)
	win, err := NewPayoff("win", map[string]float64{"A": 10})
	must(err)
	lose, err := NewPayoff("lose", map[string]float64{"A": -10})
	must(err)
	t1, err := NewTerminalNode("t1", win)
	must(err)
	t2, err := NewTerminalNode("t2", lose)
	must(err)
	heads, err := NewChanceAction("heads", "", 0.5, t1)
	must(err)
	tails, err := NewChanceAction("tails", "", 0.5, t2)
	must(err)
	flip, err := NewDecisionNode("flip", "Nature", heads, tails)
	must(err)
	t3, err := NewTerminalNode("t3", win)
	must(err)
	bet, err := NewAction("bet", "", flip)
	must(err)
	pass, err := NewAction("pass", "", t3)
	must(err)
	root, err := NewDecisionNode("root", "A", bet, pass)
	must(err)

	a, err := NewAnalysis("Coin bet", "A bets on a coin", []Player{a1, nat}, ExtensiveForm, 50)
	must(err)
	a.GameTree = root
	return a
}

func TestFinalizeReturnsIndependentCopy(t *testing.T) {
	a := buildAnalysis(t)
	final, err := Finalize(a)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if diff := cmp.Diff(a, final); diff != "" {
		t.Fatalf("copy differs (-orig +copy):\n%s", diff)
	}

	*a.GameTree.Actions[0].NextNode.Actions[0].Probability = 0.9
	a.GameTree.Actions[0].NextNode.Actions[0].NextNode.Payoff.Utilities["A"] = 99
	a.Players[0].Name = "Z"

	if p := *final.GameTree.Actions[0].NextNode.Actions[0].Probability; p != 0.5 {
		t.Errorf("probability shared with the source: %v", p)
	}
	if u := final.GameTree.Actions[0].NextNode.Actions[0].NextNode.Payoff.Utilities["A"]; u != 10 {
		t.Errorf("utilities shared with the source: %v", u)
	}
	if final.Players[0].Name != "A" {
		t.Error("players shared with the source")
	}
}

func TestFinalizeRejectsFieldErrors(t *testing.T) {
	a := buildAnalysis(t)
	a.GameTree.Actions[1].NextNode.ID = ""

	_, err := Finalize(a)
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FieldError", err)
	}
	if fe.Field != "game_tree.actions[1].next_node.id" {
		t.Errorf("field = %q", fe.Field)
	}

	if _, err := Finalize(nil); err == nil {
		t.Error("Finalize(nil) succeeded")
	}
}

func TestNormalFormLookup(t *testing.T) {
	g := &NormalFormGame{
		Outcomes: []ProfileOutcome{
			{Profile: []string{"a", "b"}, Payoff: Payoff{OutcomeSummary: "ab"}},
			{Profile: []string{"b", "b"}, Payoff: Payoff{OutcomeSummary: "bb"}},
		},
	}
	if o, ok := g.Lookup("a", "b"); !ok || o.Payoff.OutcomeSummary != "ab" {
		t.Errorf("Lookup(a, b) = %v, %v", o, ok)
	}
	if _, ok := g.Lookup("b", "a"); ok {
		t.Error("Lookup(b, a) found an outcome")
	}
	var nilGame *NormalFormGame
	if _, ok := nilGame.Lookup("a"); ok {
		t.Error("nil game found an outcome")
	}
}

func TestViolationFilters(t *testing.T) {
	vs := []Violation{
		{Severity: SeverityWarning, Code: "w1"},
		{Severity: SeverityError, Code: "e1", Path: "game_tree", Message: "bad"},
		{Severity: SeverityWarning, Code: "w2"},
	}
	if got := Errors(vs); len(got) != 1 || got[0].Code != "e1" {
		t.Errorf("Errors = %v", got)
	}
	if got := Warnings(vs); len(got) != 2 || got[1].Code != "w2" {
		t.Errorf("Warnings = %v", got)
	}
	if got, want := vs[1].String(), "error: e1 at game_tree: bad"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}
