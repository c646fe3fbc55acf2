package formatter

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

// RenderTree draws the game tree of a with box-drawing branches.
func RenderTree(w io.Writer, a *model.GameAnalysis) {
	roles := make(map[string]model.Role, len(a.Players))
	for _, p := range a.Players {
		roles[p.Name] = p.Role
	}
	fmt.Fprintf(w, "   %s\n", nodeLabel(a.GameTree, roles))
	renderChildren(w, a.GameTree, roles, "   ")
}

func renderChildren(w io.Writer, n *model.GameNode, roles map[string]model.Role, prefix string) {
	if n == nil || n.IsTerminal {
		return
	}
	for i, act := range n.Actions {
		branch, next := "├── ", "│   "
		if i == len(n.Actions)-1 {
			branch, next = "└── ", "    "
		}
		edge := act.Name
		if act.Probability != nil {
			edge += fmt.Sprintf(" (p=%s)", formatNumber(*act.Probability))
		}
		fmt.Fprintf(w, "%s%s%s → %s\n", prefix, branch, edge, nodeLabel(act.NextNode, roles))
		renderChildren(w, act.NextNode, roles, prefix+next)
	}
}

func nodeLabel(n *model.GameNode, roles map[string]model.Role) string {
	if n == nil {
		return color.RedString("(missing)")
	}
	if n.IsTerminal {
		if n.Payoff == nil {
			return fmt.Sprintf("[%s] %s", n.ID, color.RedString("no payoff"))
		}
		return fmt.Sprintf("[%s] %s %s", n.ID, n.Payoff.OutcomeSummary, utilitiesString(n.Payoff.Utilities))
	}
	label := fmt.Sprintf("[%s] %s", n.ID, color.New(color.Bold).Sprint(n.Mover()))
	if roles[n.Mover()] == model.RoleNature {
		label += " " + color.MagentaString("[chance]")
	}
	return label
}

func utilitiesString(u map[string]float64) string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, formatNumber(u[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// RenderMatrix lists every strategy profile with its payoff.
func RenderMatrix(w io.Writer, nf *model.NormalFormGame) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := make([]string, 0, len(nf.Strategies)+1)
	for _, s := range nf.Strategies {
		header = append(header, s.Player)
	}
	header = append(header, "Payoff")
	fmt.Fprintf(tw, "   %s\n", strings.Join(header, "\t"))
	for _, o := range nf.Outcomes {
		row := append(append([]string(nil), o.Profile...), utilitiesString(o.Payoff.Utilities))
		fmt.Fprintf(tw, "   %s\n", strings.Join(row, "\t"))
	}
	tw.Flush()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
