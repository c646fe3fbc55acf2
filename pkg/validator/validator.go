// Package validator checks candidate game models against the structural and
// game-theoretic rules a renderer or analyst relies on.
//
// Validate is total: any value that decoded into a *model.GameAnalysis,
// however inconsistent, yields a Result and never a panic. It collects every
// violation in one pass so a generator can repair all of them at once.
package validator

import (
	"fmt"
	"math"
	"sort"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

const (
	DefaultMaxDepth  = 5
	DefaultTolerance = 1e-6

	// maxMissingProfiles caps per-profile reports for an incomplete matrix.
	maxMissingProfiles = 20
	// maxEnumeratedProfiles bounds the completeness check of a matrix.
	maxEnumeratedProfiles = 1 << 16
)

// Violation codes.
const (
	CodeNilCandidate          = "nil-candidate"
	CodeMissingTitle          = "missing-title"
	CodeConfidenceOutOfRange  = "confidence-out-of-range"
	CodeNoPlayers             = "no-players"
	CodeMissingPlayerName     = "missing-player-name"
	CodeDuplicatePlayer       = "duplicate-player"
	CodeInvalidRole           = "invalid-role"
	CodeMultipleNature        = "multiple-nature"
	CodeInvalidGameType       = "invalid-game-type"
	CodeMissingGameTree       = "missing-game-tree"
	CodeMissingNormalForm     = "missing-normal-form"
	CodeUnexpectedGameTree    = "unexpected-game-tree"
	CodeUnexpectedNormalForm  = "unexpected-normal-form"
	CodeMissingID             = "missing-id"
	CodeDuplicateID           = "duplicate-id"
	CodeMissingPayoff         = "missing-payoff"
	CodeTerminalHasActions    = "terminal-has-actions"
	CodeMissingMover          = "missing-mover"
	CodeNoActions             = "no-actions"
	CodeUnexpectedPayoff      = "unexpected-payoff"
	CodeMissingNextNode       = "missing-next-node"
	CodeDepthExceeded         = "depth-exceeded"
	CodeMissingProbability    = "missing-probability"
	CodeProbabilityOutOfRange = "probability-out-of-range"
	CodeProbabilityMass       = "probability-mass-mismatch"
	CodeUnexpectedProbability = "unexpected-probability"
	CodeSingleChoice          = "single-choice"
	CodeDuplicateAction       = "duplicate-action"
	CodeUnknownUtilityPlayer  = "unknown-utility-player"
	CodeMissingUtility        = "missing-utility"
	CodeUnusedPlayer          = "unused-player"
	CodeUndeclaredPlayer      = "undeclared-player"
	CodeNatureStrategies      = "nature-strategies"
	CodeDuplicateStrategySet  = "duplicate-strategy-set"
	CodeEmptyStrategySet      = "empty-strategy-set"
	CodeMissingStrategyName   = "missing-strategy-name"
	CodeDuplicateStrategy     = "duplicate-strategy"
	CodeMissingStrategies     = "missing-strategies"
	CodeInvalidProfile        = "invalid-profile"
	CodeDuplicateProfile      = "duplicate-profile"
	CodeMissingProfile        = "missing-profile"
)

// Options tunes the numeric limits. Zero values fall back to the defaults.
type Options struct {
	MaxDepth  int
	Tolerance float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, Tolerance: DefaultTolerance}
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	return o
}

// Result is the outcome of one validation pass.
type Result struct {
	OK         bool              `json:"ok" yaml:"ok"`
	Violations []model.Violation `json:"violations" yaml:"violations"`
}

// Errors returns the error-severity violations.
func (r Result) Errors() []model.Violation { return model.Errors(r.Violations) }

// Warnings returns the warning-severity violations.
func (r Result) Warnings() []model.Violation { return model.Warnings(r.Violations) }

type undeclaredRef struct {
	path string
	name string
}

type checker struct {
	opts           Options
	roles          map[string]model.Role
	decisionMakers []string
	seenIDs        map[string]string
	moved          map[string]bool
	undeclared     []undeclaredRef
	out            []model.Violation
}

// Validate checks a candidate analysis and returns every violation found.
func Validate(a *model.GameAnalysis, opts Options) Result {
	if a == nil {
		return Result{Violations: []model.Violation{{
			Severity: model.SeverityError,
			Code:     CodeNilCandidate,
			Message:  "candidate is empty",
		}}}
	}

	c := &checker{
		opts:    opts.normalized(),
		roles:   make(map[string]model.Role),
		seenIDs: make(map[string]string),
		moved:   make(map[string]bool),
	}
	c.checkHeader(a)
	c.checkPlayers(a.Players)

	switch a.GameType {
	case model.ExtensiveForm:
		if a.GameTree == nil {
			c.errorf(CodeMissingGameTree, "game_tree", "extensive_form analysis has no game tree")
		}
		if a.NormalForm != nil {
			c.warnf(CodeUnexpectedNormalForm, "normal_form", "extensive_form analysis carries a normal_form matrix that will be ignored")
		}
	case model.NormalForm:
		if a.NormalForm == nil {
			c.errorf(CodeMissingNormalForm, "normal_form", "normal_form analysis has no strategy/payoff matrix")
		}
		if a.GameTree != nil {
			c.warnf(CodeUnexpectedGameTree, "game_tree", "normal_form analysis carries a game tree that will be ignored")
		}
	default:
		c.errorf(CodeInvalidGameType, "game_type", "game_type %q is not one of extensive_form, normal_form", a.GameType)
	}

	if a.GameTree != nil {
		c.visit(a.GameTree, "game_tree", 0)
		c.checkReferences(a.Players)
	}
	if a.NormalForm != nil {
		c.checkMatrix(a.NormalForm)
	}

	return Result{OK: len(model.Errors(c.out)) == 0, Violations: c.out}
}

func (c *checker) errorf(code, path, format string, args ...interface{}) {
	c.out = append(c.out, model.Violation{
		Severity: model.SeverityError,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) warnf(code, path, format string, args ...interface{}) {
	c.out = append(c.out, model.Violation{
		Severity: model.SeverityWarning,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) checkHeader(a *model.GameAnalysis) {
	if a.Title == "" {
		c.warnf(CodeMissingTitle, "title", "analysis has no title")
	}
	if a.ConfidenceScore < 0 || a.ConfidenceScore > 100 {
		c.errorf(CodeConfidenceOutOfRange, "confidence_score", "confidence_score %d outside [0,100]", a.ConfidenceScore)
	}
}

func (c *checker) checkPlayers(players []model.Player) {
	if len(players) == 0 {
		c.errorf(CodeNoPlayers, "players", "at least one player must be declared")
		return
	}
	natures := 0
	for i, p := range players {
		path := fmt.Sprintf("players[%d]", i)
		if !p.Role.Valid() {
			c.errorf(CodeInvalidRole, path+".role", "role %q is not one of decision_maker, nature", p.Role)
		}
		if p.Role == model.RoleNature {
			natures++
		}
		if p.Name == "" {
			c.errorf(CodeMissingPlayerName, path+".name", "player has no name")
			continue
		}
		if _, dup := c.roles[p.Name]; dup {
			c.errorf(CodeDuplicatePlayer, path+".name", "player %q is declared more than once", p.Name)
			continue
		}
		c.roles[p.Name] = p.Role
		if p.Role == model.RoleDecisionMaker {
			c.decisionMakers = append(c.decisionMakers, p.Name)
		}
	}
	if natures > 1 {
		c.warnf(CodeMultipleNature, "players", "%d nature players declared; chance should be a single pseudo-player", natures)
	}
}

func (c *checker) visit(n *model.GameNode, path string, depth int) {
	if n.ID == "" {
		c.errorf(CodeMissingID, path+".id", "node has no id")
	} else if first, dup := c.seenIDs[n.ID]; dup {
		c.errorf(CodeDuplicateID, path+".id", "node id %q already used at %s", n.ID, first)
	} else {
		c.seenIDs[n.ID] = path
	}

	if n.IsTerminal {
		if n.Payoff == nil {
			c.errorf(CodeMissingPayoff, path+".payoff", "terminal node %q has no payoff", n.ID)
		} else {
			c.checkUtilities(path+".payoff", n.Payoff)
		}
		if len(n.Actions) > 0 {
			c.errorf(CodeTerminalHasActions, path+".actions", "terminal node %q has %d actions", n.ID, len(n.Actions))
		}
		return
	}

	mover := n.Mover()
	role, known := c.roles[mover]
	switch {
	case mover == "":
		c.errorf(CodeMissingMover, path+".current_player_name", "non-terminal node %q has no current_player_name", n.ID)
	case !known:
		c.undeclared = append(c.undeclared, undeclaredRef{path: path + ".current_player_name", name: mover})
	default:
		c.moved[mover] = true
	}

	if len(n.Actions) == 0 {
		if n.Payoff != nil {
			c.errorf(CodeNoActions, path+".actions", "node %q has a payoff but no actions; mark it is_terminal", n.ID)
		} else {
			c.errorf(CodeNoActions, path+".actions", "non-terminal node %q has no actions", n.ID)
		}
	} else if n.Payoff != nil {
		c.warnf(CodeUnexpectedPayoff, path+".payoff", "non-terminal node %q carries a payoff", n.ID)
	}

	if known {
		switch role {
		case model.RoleNature:
			c.checkChance(path, n.Actions)
		case model.RoleDecisionMaker:
			c.checkChoices(path, n.Actions)
		}
	}
	c.checkActionNames(path, n.Actions)

	for i := range n.Actions {
		a := &n.Actions[i]
		next := fmt.Sprintf("%s.actions[%d].next_node", path, i)
		if a.NextNode == nil {
			c.errorf(CodeMissingNextNode, next, "action %q leads nowhere", a.Name)
			continue
		}
		if depth+1 > c.opts.MaxDepth {
			c.errorf(CodeDepthExceeded, next, "tree deeper than %d moves", c.opts.MaxDepth)
			continue
		}
		c.visit(a.NextNode, next, depth+1)
	}
}

func (c *checker) checkChance(path string, actions []model.Action) {
	sum := 0.0
	complete := len(actions) > 0
	for i, a := range actions {
		ap := fmt.Sprintf("%s.actions[%d].probability", path, i)
		if a.Probability == nil {
			c.errorf(CodeMissingProbability, ap, "chance action %q has no probability", a.Name)
			complete = false
			continue
		}
		p := *a.Probability
		if math.IsNaN(p) || math.IsInf(p, 0) {
			c.errorf(CodeProbabilityOutOfRange, ap, "probability of %q is not a number", a.Name)
			complete = false
			continue
		}
		if p < 0 || p > 1 {
			c.errorf(CodeProbabilityOutOfRange, ap, "probability %g of %q outside [0,1]", p, a.Name)
		}
		sum += p
	}
	if complete && math.Abs(sum-1) > c.opts.Tolerance {
		c.errorf(CodeProbabilityMass, path, "chance probabilities sum to %g, want 1 (±%g)", sum, c.opts.Tolerance)
	}
}

func (c *checker) checkChoices(path string, actions []model.Action) {
	for i, a := range actions {
		if a.Probability != nil {
			c.warnf(CodeUnexpectedProbability, fmt.Sprintf("%s.actions[%d].probability", path, i),
				"action %q of a decision maker carries a probability", a.Name)
		}
	}
	if len(actions) == 1 {
		c.warnf(CodeSingleChoice, path+".actions", "decision node offers a single action; fold it into the previous outcome")
	}
}

func (c *checker) checkActionNames(path string, actions []model.Action) {
	seen := make(map[string]bool, len(actions))
	for i, a := range actions {
		if seen[a.Name] {
			c.warnf(CodeDuplicateAction, fmt.Sprintf("%s.actions[%d].name", path, i), "action name %q repeated among siblings", a.Name)
			continue
		}
		seen[a.Name] = true
	}
}

// checkUtilities enforces referential integrity of a payoff: keys are
// declared players, and every decision maker is present.
func (c *checker) checkUtilities(path string, p *model.Payoff) {
	keys := make([]string, 0, len(p.Utilities))
	for k := range p.Utilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := c.roles[k]; !ok {
			c.errorf(CodeUnknownUtilityPlayer, fmt.Sprintf("%s.utilities[%s]", path, k), "utility for undeclared player %q", k)
		}
	}
	for _, name := range c.decisionMakers {
		if _, ok := p.Utilities[name]; !ok {
			c.errorf(CodeMissingUtility, path+".utilities", "no utility for decision maker %q", name)
		}
	}
}

func (c *checker) checkReferences(players []model.Player) {
	reported := make(map[string]bool)
	for i, p := range players {
		if p.Name == "" || reported[p.Name] {
			continue
		}
		reported[p.Name] = true
		if !c.moved[p.Name] {
			c.warnf(CodeUnusedPlayer, fmt.Sprintf("players[%d]", i), "player %q never moves in the game tree", p.Name)
		}
	}
	for _, ref := range c.undeclared {
		c.errorf(CodeUndeclaredPlayer, ref.path, "player %q is not declared", ref.name)
	}
}
