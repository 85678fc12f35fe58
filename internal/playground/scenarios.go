package playground

import (
	"sort"
	"strings"

	"github.com/wippyai/rcell/errors"
)

var scenarios = map[string]string{
	"A": `
name: A
steps:
  - {op: new, name: a, value: 5}
  - {op: clone, name: b, from: a}
  - {op: expect, name: a, strong: 2, weak: 0}
  - {op: release, name: a}
  - {op: expect, name: b, strong: 1, value: 5}
  - {op: release, name: b}
`,
	"B": `
name: B
steps:
  - {op: new, name: a, value: 5}
  - {op: downgrade, name: w, from: a}
  - {op: expect, name: a, strong: 1, weak: 1}
  - {op: release, name: a}
  - {op: expect, name: w, alive: false}
  - {op: upgrade, name: s, from: w, alive: false}
  - {op: release, name: w}
`,
	"C": `
name: C
steps:
  - {op: new, name: a, value: 5}
  - {op: borrow, name: g1, from: a}
  - {op: borrow, name: g2, from: a}
  - {op: expect, name: a, state: shared(2)}
  - {op: release, name: g1}
  - {op: release, name: g2}
  - {op: borrow_mut, name: m, from: a}
  - {op: set, name: m, value: 6}
  - {op: release, name: m}
  - {op: expect, name: a, value: 6, state: unshared}
  - {op: release, name: a}
`,
	"D": `
name: D
steps:
  - {op: new, name: a, value: 5}
  - {op: borrow_mut, name: m, from: a}
  - {op: borrow, name: r, from: a, conflict: true}
  - {op: expect, name: a, state: exclusive}
  - {op: release, name: m}
  - {op: release, name: a}
`,
}

// ScenarioNames lists the built-in scenarios.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Scenario returns a built-in scenario. kind selects rc or arc handles for
// every new value; empty means rc.
func Scenario(name, kind string) (*Script, error) {
	src, ok := scenarios[strings.ToUpper(name)]
	if !ok {
		return nil, errors.NotFound(errors.PhaseScript, "scenario", name)
	}
	s, err := Load(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	if kind != "" {
		if kind != KindRc && kind != KindArc {
			return nil, errors.InvalidInput(errors.PhaseScript, "unknown kind "+kind)
		}
		for i := range s.Steps {
			if s.Steps[i].Op == OpNew {
				s.Steps[i].Kind = kind
			}
		}
	}
	return s, nil
}
