package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/rcell/internal/playground"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	kind, verbose, noColor = "", false, true

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScenarioCommand(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"scenario", "A"}, []string{"clone b <- a", "destroyed a", "OK"}},
		{[]string{"scenario", "b", "--kind", "arc"}, []string{"upgrade s <- w: value gone", "OK"}},
		{[]string{"scenario", "C"}, []string{"borrow_mut m <- a: exclusive", "OK"}},
		{[]string{"scenario", "D", "--kind", "rc"}, []string{"borrow r <- a: conflict", "OK"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("execute failed: %v\n%s", err, out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestScenarioUnknown(t *testing.T) {
	if _, err := execute(t, "scenario", "Q"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(good, []byte(`
name: good
steps:
  - {op: new, name: a, value: 1}
  - {op: downgrade, name: w, from: a}
`), 0o600)
	os.WriteFile(bad, []byte(`
name: bad
steps:
  - {op: new, name: a}
  - {op: expect, name: a, strong: 5}
`), 0o600)

	out, err := execute(t, "run", good)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "strong=1 weak=1") {
		t.Errorf("expected live slot counts in output:\n%s", out)
	}

	out, err = execute(t, "run", bad)
	if err == nil {
		t.Fatal("expected failing expectation to return an error")
	}
	if !strings.Contains(out, "FAIL") {
		t.Errorf("expected FAIL in output:\n%s", out)
	}
}

var guestWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x02, 0x0f, 0x01,
	0x05, 'r', 'c', 'e', 'l', 'l',
	0x05, 'c', 'l', 'o', 'n', 'e',
	0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 'd', 'u', 'p', 0x00, 0x01,
	0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b,
}

func TestGuestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.wasm")
	if err := os.WriteFile(path, guestWasm, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "guest", path, "--func", "dup", "--value", "shared")
	if err != nil {
		t.Fatalf("guest failed: %v", err)
	}
	for _, w := range []string{"dup(1) = 2", "handle 1: shared strong=2", "handle 2: shared strong=2"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}

	if _, err := execute(t, "guest", path, "--func", "missing"); err == nil {
		t.Fatal("expected error for a missing export")
	}
}

func TestInteractiveModel(t *testing.T) {
	m := newInteractiveModel(playground.New())
	defer m.machine.Close()

	m.input.SetValue("new a 5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.err != nil {
		t.Fatalf("exec failed: %v", m.err)
	}
	if m.input.Value() != "" {
		t.Fatal("input should be cleared after enter")
	}

	m.exec("clone b a")
	m.exec("release a")
	m.exec("release b")
	if m.err != nil {
		t.Fatalf("exec failed: %v", m.err)
	}
	if view := m.View(); !strings.Contains(view, "destroyed a") {
		t.Errorf("view missing destruction trace:\n%s", view)
	}

	m.exec("borrow g nope")
	if m.err == nil || !strings.Contains(m.View(), "Error:") {
		t.Error("expected an error for a missing slot")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "borrow g nope" {
		t.Errorf("history up gave %q", m.input.Value())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "" {
		t.Errorf("history down past the end should clear input, got %q", m.input.Value())
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc should quit")
	}
}
