package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

// MaxProfiles bounds the number of strategy profiles ToNormalForm will
// enumerate.
const MaxProfiles = 4096

// NoMove is the single strategy of a decision maker who never moves.
const NoMove = "no-move"

var (
	// ErrNonReducibleTree means some player moves twice along one path, so a
	// strategy cannot be a single choice per decision point.
	ErrNonReducibleTree = errors.New("non-reducible-tree")
	// ErrMatrixTooLarge means the strategy profile space exceeds MaxProfiles.
	ErrMatrixTooLarge = errors.New("normal form matrix too large")
	// ErrInvalidTree means the tree breaks an invariant the reduction needs.
	ErrInvalidTree = errors.New("invalid game tree")
)

// ToNormalForm reduces a perfect-information tree to its strategy/payoff
// matrix. A player's pure strategy picks one action at each of that
// player's decision nodes; chance nodes fold into expected utilities.
func ToNormalForm(players []model.Player, root *model.GameNode) (*model.NormalFormGame, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty tree", ErrInvalidTree)
	}
	roles := make(map[string]model.Role, len(players))
	for _, p := range players {
		roles[p.Name] = p.Role
	}

	r := &reducer{roles: roles, nodes: make(map[string][]*model.GameNode)}
	if err := r.scan(root, "game_tree", map[string]string{}); err != nil {
		return nil, err
	}

	var order []string
	for _, p := range players {
		if p.Role == model.RoleDecisionMaker {
			order = append(order, p.Name)
		}
	}

	sets := make([]model.StrategySet, len(order))
	plans := make([][][]int, len(order))
	total := 1
	for i, name := range order {
		labels, choices, err := strategies(r.nodes[name])
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", name, err)
		}
		total *= len(labels)
		if total > MaxProfiles {
			return nil, fmt.Errorf("%w: more than %d profiles", ErrMatrixTooLarge, MaxProfiles)
		}
		sets[i] = model.StrategySet{Player: name, Strategies: labels}
		plans[i] = choices
	}

	nf := &model.NormalFormGame{Strategies: sets}
	idx := make([]int, len(order))
	for n := 0; n < total; n++ {
		choice := make(map[*model.GameNode]int)
		profile := make([]string, len(order))
		for i, name := range order {
			profile[i] = sets[i].Strategies[idx[i]]
			for k, node := range r.nodes[name] {
				choice[node] = plans[i][idx[i]][k]
			}
		}
		payoff := r.play(root, choice)
		nf.Outcomes = append(nf.Outcomes, model.ProfileOutcome{Profile: profile, Payoff: payoff})

		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(sets[i].Strategies) {
				break
			}
			idx[i] = 0
		}
	}
	return nf, nil
}

// Normalize returns a copy of a converted to the normal_form representation.
func Normalize(a *model.GameAnalysis) (*model.GameAnalysis, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: empty analysis", ErrInvalidTree)
	}
	if a.GameType == model.NormalForm && a.NormalForm != nil {
		return a.Clone(), nil
	}
	nf, err := ToNormalForm(a.Players, a.GameTree)
	if err != nil {
		return nil, err
	}
	out := a.Clone()
	out.GameType = model.NormalForm
	out.GameTree = nil
	out.NormalForm = nf
	return out, nil
}

type reducer struct {
	roles map[string]model.Role
	// nodes holds each decision maker's decision nodes in pre-order.
	nodes map[string][]*model.GameNode
}

// scan checks reducibility and records decision nodes. onPath maps each
// player who already moved on the current path to the node id where it did.
func (r *reducer) scan(n *model.GameNode, path string, onPath map[string]string) error {
	if n == nil {
		return fmt.Errorf("%w: missing node at %s", ErrInvalidTree, path)
	}
	if n.IsTerminal {
		if n.Payoff == nil {
			return fmt.Errorf("%w: terminal %q has no payoff", ErrInvalidTree, n.ID)
		}
		return nil
	}
	if len(n.Actions) == 0 {
		return fmt.Errorf("%w: node %q has no actions", ErrInvalidTree, n.ID)
	}
	mover := n.Mover()
	role, ok := r.roles[mover]
	if !ok {
		return fmt.Errorf("%w: node %q moved by undeclared player %q", ErrInvalidTree, n.ID, mover)
	}

	switch role {
	case model.RoleNature:
		for _, a := range n.Actions {
			if a.Probability == nil {
				return fmt.Errorf("%w: chance action %q at node %q has no probability", ErrInvalidTree, a.Name, n.ID)
			}
		}
	case model.RoleDecisionMaker:
		if first, again := onPath[mover]; again {
			return fmt.Errorf("%w: %q moves at node %q after already moving at node %q", ErrNonReducibleTree, mover, n.ID, first)
		}
		seen := make(map[string]bool, len(n.Actions))
		for _, a := range n.Actions {
			if seen[a.Name] {
				return fmt.Errorf("%w: node %q repeats action %q", ErrInvalidTree, n.ID, a.Name)
			}
			seen[a.Name] = true
		}
		r.nodes[mover] = append(r.nodes[mover], n)
		onPath[mover] = n.ID
		defer delete(onPath, mover)
	}

	for i := range n.Actions {
		if err := r.scan(n.Actions[i].NextNode, fmt.Sprintf("%s.actions[%d].next_node", path, i), onPath); err != nil {
			return err
		}
	}
	return nil
}

// strategies enumerates the pure strategies over a player's decision nodes.
// Each strategy is returned both as a label and as one action index per node.
func strategies(nodes []*model.GameNode) ([]string, [][]int, error) {
	if len(nodes) == 0 {
		return []string{NoMove}, [][]int{nil}, nil
	}
	total := 1
	for _, n := range nodes {
		total *= len(n.Actions)
		if total > MaxProfiles {
			return nil, nil, fmt.Errorf("%w: more than %d strategies", ErrMatrixTooLarge, MaxProfiles)
		}
	}

	labels := make([]string, 0, total)
	choices := make([][]int, 0, total)
	idx := make([]int, len(nodes))
	for s := 0; s < total; s++ {
		parts := make([]string, len(nodes))
		for k, n := range nodes {
			if len(nodes) == 1 {
				parts[k] = n.Actions[idx[k]].Name
			} else {
				parts[k] = n.ID + "=" + n.Actions[idx[k]].Name
			}
		}
		labels = append(labels, strings.Join(parts, "/"))
		choices = append(choices, append([]int(nil), idx...))

		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(nodes[k].Actions) {
				break
			}
			idx[k] = 0
		}
	}
	return labels, choices, nil
}

type reached struct {
	summary string
	prob    float64
}

// play follows the chosen actions from n, averaging over chance.
func (r *reducer) play(n *model.GameNode, choice map[*model.GameNode]int) model.Payoff {
	utilities := make(map[string]float64)
	var leaves []reached
	r.descend(n, 1, choice, utilities, &leaves)

	summary := ""
	if len(leaves) == 1 {
		summary = leaves[0].summary
	} else {
		parts := make([]string, len(leaves))
		for i, l := range leaves {
			parts[i] = fmt.Sprintf("%s (p=%g)", l.summary, l.prob)
		}
		summary = strings.Join(parts, "; ")
	}
	return model.Payoff{OutcomeSummary: summary, Utilities: utilities}
}

func (r *reducer) descend(n *model.GameNode, prob float64, choice map[*model.GameNode]int, utilities map[string]float64, leaves *[]reached) {
	if n.IsTerminal {
		for name, u := range n.Payoff.Utilities {
			utilities[name] += prob * u
		}
		*leaves = append(*leaves, reached{summary: n.Payoff.OutcomeSummary, prob: prob})
		return
	}
	if r.roles[n.Mover()] == model.RoleNature {
		for _, a := range n.Actions {
			if *a.Probability == 0 {
				continue
			}
			r.descend(a.NextNode, prob*(*a.Probability), choice, utilities, leaves)
		}
		return
	}
	r.descend(n.Actions[choice[n]].NextNode, prob, choice, utilities, leaves)
}
