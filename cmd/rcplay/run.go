package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/rcell/internal/playground"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScenarioCmd())
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a YAML script",
		Long: `Run executes every step of a script and prints the trace.

Example script:
  name: demo
  steps:
    - {op: new, name: a, value: 5}
    - {op: downgrade, name: w, from: a}
    - {op: release, name: a}
    - {op: upgrade, name: s, from: w, alive: false}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := playground.LoadFile(args[0])
			if err != nil {
				return err
			}
			return runScript(cmd, s)
		},
	}
}

func newScenarioCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "scenario <A|B|C|D>",
		Short: "Run a built-in scenario",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, n := range playground.ScenarioNames() {
					cmd.Println(n)
				}
				return nil
			}
			s, err := playground.Scenario(args[0], kind)
			if err != nil {
				return err
			}
			return runScript(cmd, s)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List built-in scenarios")
	return cmd
}

func runScript(cmd *cobra.Command, s *playground.Script) error {
	if kind != "" {
		for i := range s.Steps {
			if s.Steps[i].Op == playground.OpNew {
				s.Steps[i].Kind = kind
			}
		}
	}

	p := printer{w: cmd.OutOrStdout(), color: cmd.OutOrStdout() == os.Stdout && colorEnabled()}
	m := playground.New(playground.WithLogger(log))

	p.title(s.Name)
	runErr := m.Run(cmd.Context(), s)
	p.trace(m.Trace())

	p.title("live slots")
	p.slots(m.Slots())

	closeErr := m.Close()
	if runErr != nil {
		p.result(false, "FAIL")
		return runErr
	}
	p.result(true, "OK")
	return closeErr
}
