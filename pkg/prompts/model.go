package prompts

import (
	"fmt"
	"strings"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

const schema = `{
  "title": "short name of the game",
  "strategic_summary": "who is in conflict and over what",
  "players": [
    {"name": "Side A", "role": "decision_maker", "description": "who this side aggregates"},
    {"name": "Nature", "role": "nature", "description": "chance events"}
  ],
  "game_type": "extensive_form",
  "game_tree": {
    "id": "root",
    "current_player_name": "Side A",
    "is_terminal": false,
    "actions": [
      {
        "name": "Escalate",
        "description": "what choosing this means",
        "next_node": {
          "id": "n1",
          "current_player_name": "Nature",
          "is_terminal": false,
          "actions": [
            {"name": "Ruling for A", "probability": 0.6, "next_node": {"id": "t1", "is_terminal": true, "payoff": {"outcome_summary": "A prevails", "utilities": {"Side A": 50, "Side B": -50}}}},
            {"name": "Ruling for B", "probability": 0.4, "next_node": {"id": "t2", "is_terminal": true, "payoff": {"outcome_summary": "B prevails", "utilities": {"Side A": -60, "Side B": 40}}}}
          ]
        }
      },
      {
        "name": "Settle",
        "next_node": {"id": "t3", "is_terminal": true, "payoff": {"outcome_summary": "compromise", "utilities": {"Side A": 10, "Side B": 10}}}
      }
    ]
  },
  "confidence_score": 70,
  "nash_equilibrium_explanation": "the stable outcome and why",
  "actual_events_comparison": "how the prediction compares with what happened"
}`

const rules = `Rules:
1. Aggregate real-world entities into at most 3 opposing sides, plus "Nature" when chance matters. Games with more players are unreadable.
2. Every decision node must offer at least 2 distinct actions. If a side has no real choice, do not make it a node; merge it into the previous outcome.
3. Use "Nature" only for probabilistic events such as election results, court rulings or accidents. The probabilities of a Nature node's actions must sum to 1.0. Decision makers' actions carry no probability.
4. Every terminal node has is_terminal true, no actions, and a payoff with a utility for every decision maker. Utilities are VNM cardinal utilities between -100 and 100 and must reflect the conflict.
5. The root node must name a concrete current_player_name; never "Unknown".
6. Node ids are unique. The tree is at most %d moves deep.
7. Explain the Nash equilibrium and compare the predicted outcome with what actually happened.
8. game_type is "extensive_form" with a game_tree, or "normal_form" with a normal_form object {"strategies": [{"player", "strategies"}], "outcomes": [{"profile", "payoff"}]} listing every strategy profile.`

// BuildModelPrompt asks for a complete game model of text.
func BuildModelPrompt(text string, maxDepth int) string {
	return fmt.Sprintf(`You are an expert game theory modeler. Map the narrative below into a formal game, preferably an extensive form game tree.

Narrative:
%s

%s

Respond with a single JSON object following this example structure:
%s`, text, fmt.Sprintf(rules, maxDepth), schema)
}

// BuildRepairPrompt asks for a corrected model after a rejected proposal.
// previous is the raw output of the rejected proposal, may be empty.
func BuildRepairPrompt(text string, maxDepth int, previous string, violations []model.Violation) string {
	var b strings.Builder
	b.WriteString(BuildModelPrompt(text, maxDepth))
	b.WriteString("\n\nYour previous answer was rejected")
	if previous != "" {
		fmt.Fprintf(&b, ":\n%s\n", previous)
	} else {
		b.WriteString(".\n")
	}
	if len(violations) > 0 {
		b.WriteString("\nFix every one of these problems:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s\n", v.String())
		}
	}
	b.WriteString("\nReturn the full corrected JSON object only.")
	return b.String()
}
