// Command seqcore is the host-side entrypoint that wires the core's
// external interfaces (spec.md §6) to real OS MIDI ports, generalizing
// the teacher's cmd/miditest diagnostic scripts into the actual transport
// loop described in SPEC_FULL.md's domain-stack section: PortManager ->
// engine.Engine/clock.Clock -> PortManager, with projects persisted via
// package serialize instead of the teacher's ad hoc MIDI probes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seqcore/clock"
	"seqcore/config"
	"seqcore/engine"
	"seqcore/midi"
	"seqcore/project"
	"seqcore/serialize"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "new":
		if len(os.Args) < 3 {
			fmt.Println("usage: seqcore new <project-name>")
			return
		}
		newProject(os.Args[2])
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("usage: seqcore run <project-name>")
			return
		}
		runProject(os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("seqcore commands:")
	fmt.Println("  list             - list MIDI input/output ports")
	fmt.Println("  new <name>       - create and save an empty project")
	fmt.Println("  run <name>       - load a project and play it against configured MIDI ports")
}

func listPorts() {
	ins, err := midi.ListInputPorts()
	if err != nil {
		fmt.Println("error listing input ports:", err)
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}

	outs, err := midi.ListOutputPorts()
	if err != nil {
		fmt.Println("error listing output ports:", err)
	}
	fmt.Println("=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func newProject(name string) {
	p := project.NewProject()
	p.SetName(name)
	if err := serialize.CreateProject(name); err != nil {
		fmt.Println("error creating project:", err)
		return
	}
	if err := serialize.SaveProject(name, p); err != nil {
		fmt.Println("error saving project:", err)
		return
	}
	fmt.Printf("created project %q\n", name)
}

// runProject loads the named project's most recent save, opens every
// output port its MIDI-output map references, and drives the engine one
// tick per clock pulse until interrupted. Track CV/MIDI output dispatch
// follows the shape of the teacher's sequencer/manager.go midiOutputLoop;
// clock.Clock.Run supplies the tick cadence.
func runProject(name string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("error loading config:", err)
		return
	}

	proj, err := serialize.LoadProject(name, "")
	if err != nil {
		fmt.Println("error loading project:", err)
		return
	}
	fmt.Printf("loaded project %q (tempo=%v swing=%v)\n", proj.Name, proj.Tempo, proj.Swing)

	eng := engine.NewEngine(proj)

	listener := &consoleListener{}
	clk := clock.New(listener)
	clk.SetMasterBpm(proj.Tempo)
	clk.OutputConfigureSwing(proj.Swing)
	clk.OutputConfigure(proj.ClockSetup.OutputDivisor, proj.ClockSetup.OutputPulseWidthUs)

	pm := midi.NewPortManager(func(portName string, b byte) {
		clk.SlaveHandleMidi(0, b)
	})
	defer pm.Close()

	openedOutputs := map[string]bool{}
	for i := 0; i < project.TrackCount; i++ {
		portName := proj.MidiOutputs.Port[i]
		if portName == "" || openedOutputs[portName] {
			continue
		}
		if err := pm.OpenOutput(portName); err != nil {
			fmt.Printf("warning: could not open output %q for track %d: %v\n", portName, i, err)
			continue
		}
		openedOutputs[portName] = true
	}
	for _, name := range cfg.AutoConnectInputs() {
		if err := pm.OpenInput(name); err != nil {
			fmt.Printf("warning: could not open input %q: %v\n", name, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk.MasterStart()
	proj.PlayState.Running = true
	go clk.Run(ctx)

	fmt.Println("running, press Ctrl+C to stop")
	inputs := engine.RoutingInputs{
		CV:      func(int) float64 { return 0 },
		CC:      func(int, int) float64 { return 0 },
		TrackCV: func(int) float64 { return 0 },
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			clk.MasterStop()
			fmt.Printf("stopped (slave drift events: %d)\n", clk.DriftCount())
			return
		case <-ticker.C:
			pm.Drain()
			if _, ok := clk.CheckTick(); !ok {
				continue
			}
			for _, out := range eng.Tick(inputs) {
				portName := proj.MidiOutputs.Port[out.TrackIndex]
				if portName == "" {
					continue
				}
				for _, m := range out.MIDI {
					if err := pm.Send(portName, m); err != nil {
						fmt.Printf("warning: send to %q failed: %v\n", portName, err)
					}
				}
			}
		}
	}
}

// consoleListener prints the clock's output-stage transitions, standing in
// for the hardware gate/pulse lines spec.md §6 describes.
type consoleListener struct{}

func (consoleListener) OnClockOutput(s clock.OutputState) {
	if s.Reset {
		fmt.Println("clock: reset")
	}
}

func (consoleListener) OnClockMidi(b byte) {}
