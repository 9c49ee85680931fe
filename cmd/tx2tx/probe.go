package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tx2tx/tx2tx/logging"
)

// newProbeCmd builds the `tx2tx probe` subcommand, which checks
// whether the current session can do what the engine needs before a
// full run is attempted: connect, query geometry and pointer
// position, and grab/ungrab. Originally a standalone
// check_feasibility.py script; folded in here as a subcommand instead
// of shipping a second binary.
func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether this session can query, grab, and hide the cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe()
		},
	}
}

type probeResult struct {
	name string
	ok   bool
	err  error
}

func runProbe() error {
	log := logging.New(logging.Config{Level: logging.Info})
	fmt.Println("tx2tx feasibility probe")
	fmt.Println(strings.Repeat("=", 40))

	sess, err := connectSession("", log, true, false)
	results := []probeResult{{name: "display connect", ok: err == nil, err: err}}
	if err != nil {
		printProbeResults(results)
		return fmt.Errorf("feasibility probe failed: %w", err)
	}
	defer sess.backend.Close()

	screen, err := sess.backend.ScreenGeometry()
	results = append(results, probeResult{name: "screen geometry", ok: err == nil, err: err})
	if err == nil {
		fmt.Printf("  screen size: %dx%d\n", screen.Width, screen.Height)
	}

	_, err = sess.backend.PointerPosition()
	results = append(results, probeResult{name: "pointer position query", ok: err == nil, err: err})

	grabErr := sess.backend.GrabPointer()
	results = append(results, probeResult{name: "pointer grab", ok: grabErr == nil, err: grabErr})
	if grabErr == nil {
		_ = sess.backend.UngrabPointer()
	}

	kbErr := sess.backend.GrabKeyboard()
	results = append(results, probeResult{name: "keyboard grab", ok: kbErr == nil, err: kbErr})
	if kbErr == nil {
		_ = sess.backend.UngrabKeyboard()
	}

	hideErr := sess.backend.HideCursor()
	results = append(results, probeResult{name: "cursor hide/show", ok: hideErr == nil, err: hideErr})
	if hideErr == nil {
		_ = sess.backend.ShowCursor()
	}

	fmt.Printf("  native session: %v\n", sess.backend.IsNativeSession())

	printProbeResults(results)

	for _, r := range results {
		if !r.ok {
			return fmt.Errorf("tx2tx is not feasible on this session: %s failed: %w", r.name, r.err)
		}
	}
	fmt.Println("\ntx2tx is feasible on this session.")
	return nil
}

func printProbeResults(results []probeResult) {
	for _, r := range results {
		mark := "OK"
		if !r.ok {
			mark = "FAIL"
		}
		fmt.Printf("[%-4s] %s\n", mark, r.name)
		if r.err != nil {
			fmt.Printf("        %v\n", r.err)
		}
	}
}
