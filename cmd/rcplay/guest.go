package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/rcell/resource"
	"github.com/wippyai/rcell/wasmhost"
)

func init() {
	rootCmd.AddCommand(newGuestCmd())
}

func newGuestCmd() *cobra.Command {
	var (
		funcName string
		value    string
	)
	cmd := &cobra.Command{
		Use:   "guest <module.wasm>",
		Short: "Hand a host value to a WebAssembly guest",
		Long: `Guest inserts a string value into a handle table, instantiates the
module with the "rcell" host functions available, calls FUNC with the
value's handle and prints the table afterwards.

The function must have the signature (i32) -> i32.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read module: %w", err)
			}
			return runGuest(cmd, data, funcName, value)
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "run", "Exported function to call")
	cmd.Flags().StringVar(&value, "value", "hello", "Value to share with the guest")
	return cmd
}

func runGuest(cmd *cobra.Command, wasm []byte, funcName, value string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	table := resource.NewTable(resource.WithLogger(log))
	defer table.Close()

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := wasmhost.New(table, wasmhost.WithLogger(log)).Instantiate(ctx, rt); err != nil {
		return err
	}
	mod, err := rt.Instantiate(ctx, wasm)
	if err != nil {
		return fmt.Errorf("instantiate guest: %w", err)
	}

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return fmt.Errorf("guest does not export %q", funcName)
	}

	h, err := table.Insert(0, value)
	if err != nil {
		return err
	}
	res, err := fn.Call(ctx, api.EncodeU32(uint32(h)))
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	if len(res) == 1 {
		ret := api.DecodeI32(res[0])
		if ret < 0 {
			fmt.Fprintf(out, "%s(%d) = %d (%s)\n", funcName, h, ret, wasmhost.Status(ret))
		} else {
			fmt.Fprintf(out, "%s(%d) = %d\n", funcName, h, ret)
		}
	}

	var handles []resource.Handle
	table.Each(func(h resource.Handle, _ uint32, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		v, _ := table.Get(h)
		strong, weak, _ := table.Counts(h)
		fmt.Fprintf(out, "  handle %d: %v strong=%d weak=%d\n", h, v, strong, weak)
	}
	return nil
}
