// Command rcplay runs ownership and borrow scripts against the rc, arc and
// refcell packages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/rc"
	"github.com/wippyai/rcell/resource"
	"github.com/wippyai/rcell/wasmhost"
)

var (
	verbose bool
	noColor bool
	kind    string
)

var rootCmd = &cobra.Command{
	Use:   "rcplay",
	Short: "Play with reference counted handles and run-time borrow checking",
	Long: `rcplay executes scripts of handle operations (new, clone, downgrade,
upgrade, release, borrow, borrow_mut, set, get_mut, expect) and prints
the resulting trace, including when values are destroyed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log handle lifecycle events to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&kind, "kind", "", "Force every new value to use rc or arc handles")
}

var log = zap.NewNop()

func setupLogging() error {
	if !verbose {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log = l
	rc.SetLogger(l.Named("rc"))
	arc.SetLogger(l.Named("arc"))
	resource.SetLogger(l.Named("resource"))
	wasmhost.SetLogger(l.Named("wasmhost"))
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func colorEnabled() bool {
	return !noColor && isTerminal(os.Stdout)
}

func main() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
