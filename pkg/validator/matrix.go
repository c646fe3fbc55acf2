package validator

import (
	"fmt"
	"strings"

	"github.com/helmcode/gamemodel-ai/pkg/model"
)

func (c *checker) checkMatrix(nf *model.NormalFormGame) {
	structural := true
	owners := make(map[string]int, len(nf.Strategies))

	for i, set := range nf.Strategies {
		sp := fmt.Sprintf("normal_form.strategies[%d]", i)
		role, known := c.roles[set.Player]
		switch {
		case !known:
			c.errorf(CodeUndeclaredPlayer, sp+".player", "player %q is not declared", set.Player)
		case role == model.RoleNature:
			c.errorf(CodeNatureStrategies, sp+".player", "nature player %q cannot hold a strategy set", set.Player)
		}
		if _, dup := owners[set.Player]; dup {
			c.errorf(CodeDuplicateStrategySet, sp+".player", "player %q has more than one strategy set", set.Player)
			structural = false
		} else {
			owners[set.Player] = i
		}

		if len(set.Strategies) == 0 {
			c.errorf(CodeEmptyStrategySet, sp+".strategies", "player %q has no strategies", set.Player)
			structural = false
			continue
		}
		seen := make(map[string]bool, len(set.Strategies))
		for j, s := range set.Strategies {
			path := fmt.Sprintf("%s.strategies[%d]", sp, j)
			if s == "" {
				c.errorf(CodeMissingStrategyName, path, "strategy has no name")
				structural = false
				continue
			}
			if seen[s] {
				c.errorf(CodeDuplicateStrategy, path, "strategy %q repeated for player %q", s, set.Player)
				structural = false
				continue
			}
			seen[s] = true
		}
	}
	for _, name := range c.decisionMakers {
		if _, ok := owners[name]; !ok {
			c.errorf(CodeMissingStrategies, "normal_form.strategies", "decision maker %q has no strategy set", name)
		}
	}

	covered := make(map[string]bool, len(nf.Outcomes))
	for i := range nf.Outcomes {
		o := &nf.Outcomes[i]
		op := fmt.Sprintf("normal_form.outcomes[%d]", i)
		valid := true
		if len(o.Profile) != len(nf.Strategies) {
			c.errorf(CodeInvalidProfile, op+".profile", "profile has %d entries, want %d", len(o.Profile), len(nf.Strategies))
			valid = false
		} else {
			for k, s := range o.Profile {
				if !contains(nf.Strategies[k].Strategies, s) {
					c.errorf(CodeInvalidProfile, fmt.Sprintf("%s.profile[%d]", op, k),
						"%q is not a strategy of player %q", s, nf.Strategies[k].Player)
					valid = false
				}
			}
		}
		if valid {
			key := model.ProfileKey(o.Profile)
			if covered[key] {
				c.errorf(CodeDuplicateProfile, op+".profile", "profile (%s) listed more than once", strings.Join(o.Profile, ", "))
			}
			covered[key] = true
		}
		c.checkUtilities(op+".payoff", &o.Payoff)
	}

	if structural && len(nf.Strategies) > 0 {
		c.checkCompleteness(nf, covered)
	}
}

// checkCompleteness reports strategy profiles with no outcome, visiting
// profiles in odometer order (last player varies fastest).
func (c *checker) checkCompleteness(nf *model.NormalFormGame, covered map[string]bool) {
	total := 1
	for _, set := range nf.Strategies {
		total *= len(set.Strategies)
		if total > maxEnumeratedProfiles {
			return
		}
	}

	missing := 0
	idx := make([]int, len(nf.Strategies))
	profile := make([]string, len(nf.Strategies))
	for n := 0; n < total; n++ {
		for k, set := range nf.Strategies {
			profile[k] = set.Strategies[idx[k]]
		}
		if !covered[model.ProfileKey(profile)] {
			if missing < maxMissingProfiles {
				c.errorf(CodeMissingProfile, "normal_form.outcomes", "no outcome for profile (%s)", strings.Join(profile, ", "))
			}
			missing++
		}
		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(nf.Strategies[k].Strategies) {
				break
			}
			idx[k] = 0
		}
	}
	if missing > maxMissingProfiles {
		c.errorf(CodeMissingProfile, "normal_form.outcomes", "%d more profiles have no outcome", missing-maxMissingProfiles)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
