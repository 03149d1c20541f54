package midi

import (
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the default OS MIDI driver

	"seqcore/ringbuffer"
)

// inputRingCapacity bounds each port's SPSC ring between the gomidi
// callback (producer) and the foreground drain (consumer). 256 bytes is
// generous for the burstiest realistic input: sysex aside, MIDI messages
// are 1-3 bytes and Drain runs every tick.
const inputRingCapacity = 256

// PortManager binds the core's byte-level MIDI external interfaces
// (spec.md §6) to real OS MIDI ports via gomidi. Ports are looked up only
// when OpenInput/OpenOutput is called; there is no background rescan. It
// generalizes the teacher's Launchpad-specific device manager
// (midi/manager.go) to arbitrary input/output ports: any opened input
// forwards raw bytes to an InputSink one byte at a time (the shape
// StreamParser.Feed and clock.Clock's slave handler both expect); any
// opened output accepts a Message and sends it immediately.
type PortManager struct {
	mu        sync.RWMutex
	inputs    map[string]drivers.In
	outputs   map[string]drivers.Out
	senders   map[string]func(gomidi.Message) error
	stoppers  map[string]func()
	rings     map[string]*ringbuffer.Ring[byte]
	ringOrder []string
	sink      InputSink
	pollRate  time.Duration
}

// InputSink receives one raw MIDI byte from a named input port. It is only
// ever called from Drain, on whatever goroutine runs the foreground engine
// loop — never from the gomidi callback goroutine that actually receives
// the byte, so it may take locks and block freely.
type InputSink func(portName string, b byte)

// NewPortManager creates a port manager that delivers inbound bytes to sink.
func NewPortManager(sink InputSink) *PortManager {
	return &PortManager{
		inputs:   make(map[string]drivers.In),
		outputs:  make(map[string]drivers.Out),
		senders:  make(map[string]func(gomidi.Message) error),
		stoppers: make(map[string]func()),
		rings:    make(map[string]*ringbuffer.Ring[byte]),
		sink:     sink,
		pollRate: time.Second,
	}
}

// OpenInput opens a named input port for listening, if not already open.
// CoreMIDI's port enumeration can hang, so the scan runs with a timeout
// guard exactly like the teacher's hot-plug scanner.
func (pm *PortManager) OpenInput(name string) error {
	ports, err := scanInPorts()
	if err != nil {
		return err
	}
	for _, in := range ports {
		if portMatches(in.String(), name) {
			return pm.attachInput(in)
		}
	}
	return nil
}

// OpenOutput opens a named output port for sending, if not already open.
func (pm *PortManager) OpenOutput(name string) error {
	ports, err := scanOutPorts()
	if err != nil {
		return err
	}
	for _, out := range ports {
		if portMatches(out.String(), name) {
			return pm.attachOutput(out)
		}
	}
	return nil
}

// attachInput registers in and starts listening for inbound bytes. Per
// spec.md §5's interrupt/foreground boundary, the gomidi callback goroutine
// (standing in for a byte ISR) never calls the sink directly: it only
// pushes into this port's ring buffer. Drain, called from the foreground
// tick loop, is the sole consumer.
func (pm *PortManager) attachInput(in drivers.In) error {
	id := in.String()
	pm.mu.Lock()
	if _, ok := pm.inputs[id]; ok {
		pm.mu.Unlock()
		return nil
	}
	pm.inputs[id] = in
	ring := ringbuffer.New[byte](inputRingCapacity)
	pm.rings[id] = ring
	pm.ringOrder = append(pm.ringOrder, id)
	pm.mu.Unlock()

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		raw := msg.Bytes()
		for _, b := range raw {
			ring.Push(b) // full ring drops the byte; foreground isn't keeping up
		}
	})
	if err != nil {
		pm.mu.Lock()
		delete(pm.inputs, id)
		delete(pm.rings, id)
		pm.mu.Unlock()
		return err
	}

	pm.mu.Lock()
	pm.stoppers[id] = stop
	pm.mu.Unlock()
	return nil
}

// Drain pops every byte currently queued on every open input's ring and
// delivers it to the sink, in port-open order. Call this once per
// foreground tick (spec.md §5: "the main engine loop drains" the ring the
// byte ISRs feed).
func (pm *PortManager) Drain() {
	pm.mu.RLock()
	rings := make([]*ringbuffer.Ring[byte], len(pm.ringOrder))
	ids := make([]string, len(pm.ringOrder))
	copy(ids, pm.ringOrder)
	for i, id := range ids {
		rings[i] = pm.rings[id]
	}
	pm.mu.RUnlock()

	for i, ring := range rings {
		if ring == nil {
			continue
		}
		for {
			b, ok := ring.Pop()
			if !ok {
				break
			}
			pm.sink(ids[i], b)
		}
	}
}

func (pm *PortManager) attachOutput(out drivers.Out) error {
	id := out.String()
	pm.mu.Lock()
	if _, ok := pm.outputs[id]; ok {
		pm.mu.Unlock()
		return nil
	}
	pm.mu.Unlock()

	send, err := gomidi.SendTo(out)
	if err != nil {
		return err
	}

	pm.mu.Lock()
	pm.outputs[id] = out
	pm.senders[id] = send
	pm.mu.Unlock()
	return nil
}

// Send transmits a Message on a named (already-open) output port.
func (pm *PortManager) Send(portName string, m Message) error {
	pm.mu.RLock()
	send, ok := pm.senders[portName]
	pm.mu.RUnlock()
	if !ok {
		return nil
	}
	return send(gomidi.Message(m.Bytes()))
}

// Close releases all opened ports.
func (pm *PortManager) Close() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, stop := range pm.stoppers {
		stop()
	}
	for _, out := range pm.outputs {
		out.Close()
	}
	for _, in := range pm.inputs {
		in.Close()
	}
	pm.inputs = make(map[string]drivers.In)
	pm.outputs = make(map[string]drivers.Out)
	pm.senders = make(map[string]func(gomidi.Message) error)
	pm.stoppers = make(map[string]func())
	pm.rings = make(map[string]*ringbuffer.Ring[byte])
	pm.ringOrder = nil
}

func portMatches(portName, want string) bool {
	return strings.Contains(strings.ToLower(portName), strings.ToLower(want))
}

// ListInputPorts and ListOutputPorts enumerate OS MIDI port names, guarded
// by the same timeout as OpenInput/OpenOutput (cmd/miditest's listPorts).
func ListInputPorts() ([]string, error) {
	ports, err := scanInPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

func ListOutputPorts() ([]string, error) {
	ports, err := scanOutPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

// scanInPorts/scanOutPorts guard gomidi's port enumeration with a timeout:
// CoreMIDI can hang enumerating ports with no way to cancel in-flight.
func scanInPorts() ([]drivers.In, error) {
	ch := make(chan []drivers.In, 1)
	go func() { ch <- gomidi.GetInPorts() }()
	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(3 * time.Second):
		return nil, nil
	}
}

func scanOutPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() { ch <- gomidi.GetOutPorts() }()
	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(3 * time.Second):
		return nil, nil
	}
}
