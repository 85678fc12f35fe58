package playground

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/wippyai/rcell/errors"
)

// Op names accepted in scripts and on the command line.
const (
	OpNew       = "new"
	OpClone     = "clone"
	OpDowngrade = "downgrade"
	OpUpgrade   = "upgrade"
	OpRelease   = "release"
	OpBorrow    = "borrow"
	OpBorrowMut = "borrow_mut"
	OpSet       = "set"
	OpGetMut    = "get_mut"
	OpExpect    = "expect"
)

// Step is one instruction. Which fields apply depends on Op.
type Step struct {
	Op       string `yaml:"op"`
	Name     string `yaml:"name"`
	From     string `yaml:"from,omitempty"`
	Kind     string `yaml:"kind,omitempty"`
	Value    *int   `yaml:"value,omitempty"`
	Strong   *int   `yaml:"strong,omitempty"`
	Weak     *int   `yaml:"weak,omitempty"`
	Alive    *bool  `yaml:"alive,omitempty"`
	Unique   *bool  `yaml:"unique,omitempty"`
	State    string `yaml:"state,omitempty"`
	Conflict bool   `yaml:"conflict,omitempty"`
}

// Script is a named list of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Load decodes a script. Unknown fields are rejected.
func Load(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r, yaml.Strict())
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, "decode script")
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidInput, err, fmt.Sprintf("step %d", i+1))
		}
	}
	return &s, nil
}

// LoadFile reads a script from path.
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindNotFound, err, "open script")
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

func (s Step) validate() error {
	need := func(cond bool, what string) error {
		if !cond {
			return errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("%s needs %s", s.Op, what))
		}
		return nil
	}
	if s.Name == "" {
		return errors.InvalidInput(errors.PhaseScript, "missing name")
	}
	switch s.Op {
	case OpNew:
		if s.Kind != "" && s.Kind != KindRc && s.Kind != KindArc {
			return errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("unknown kind %q", s.Kind))
		}
		return nil
	case OpClone, OpDowngrade, OpUpgrade, OpBorrow, OpBorrowMut:
		return need(s.From != "", "from")
	case OpSet, OpGetMut:
		return need(s.Value != nil, "value")
	case OpRelease, OpExpect:
		return nil
	default:
		return errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("unknown op %q", s.Op))
	}
}

// ParseCommand parses the short form used interactively:
//
//	new NAME [VALUE] [rc|arc]
//	clone|downgrade|upgrade|borrow|borrow_mut NAME FROM
//	set|get_mut NAME VALUE
//	release NAME
func ParseCommand(line string) (Step, error) {
	f := strings.Fields(line)
	if len(f) < 2 {
		return Step{}, errors.InvalidInput(errors.PhaseScript, "usage: OP NAME [ARGS]")
	}
	st := Step{Op: f[0], Name: f[1]}
	args := f[2:]

	intArg := func(s string) (*int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("bad value %q", s))
		}
		return &n, nil
	}

	var err error
	switch st.Op {
	case OpNew:
		for _, a := range args {
			if a == KindRc || a == KindArc {
				st.Kind = a
				continue
			}
			if st.Value, err = intArg(a); err != nil {
				return Step{}, err
			}
		}
	case OpClone, OpDowngrade, OpUpgrade, OpBorrow, OpBorrowMut:
		if len(args) != 1 {
			return Step{}, errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("usage: %s NAME FROM", st.Op))
		}
		st.From = args[0]
	case OpSet, OpGetMut:
		if len(args) != 1 {
			return Step{}, errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("usage: %s NAME VALUE", st.Op))
		}
		if st.Value, err = intArg(args[0]); err != nil {
			return Step{}, err
		}
	case OpRelease:
		if len(args) != 0 {
			return Step{}, errors.InvalidInput(errors.PhaseScript, "usage: release NAME")
		}
	}
	if err := st.validate(); err != nil {
		return Step{}, err
	}
	return st, nil
}
