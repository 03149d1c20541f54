// Package clock implements the master/slave transport clock (spec.md
// §4.4): tick generation, MIDI clock I/O, output divisor and swing.
// Grounded in original_source/.../sequencer/TestClock.cpp, which pins the
// tick-duration formula and the Start/Reset event-latching semantics that
// spec.md's prose leaves implicit.
package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"seqcore/midi"
)

// Mode selects how the clock picks its active role.
type Mode int

const (
	ModeAuto Mode = iota
	ModeMaster
	ModeSlave
)

// ActiveRole is the role fixed by the first Start while running, per
// spec.md §4.4's Auto-mode description.
type ActiveRole int

const (
	RoleNone ActiveRole = iota
	RoleMaster
	RoleSlave
)

// Event bits, latched by checkEvent and cleared on read (spec.md §4.4).
const (
	EventStart uint32 = 1 << iota
	EventStop
	EventContinue
	EventReset
)

// OutputState is emitted to the clock's output listener on every output
// pulse (spec.md §4.4/§6).
type OutputState struct {
	Run   bool
	Reset bool
	Pulse bool
}

// Listener receives the clock's two output streams: transport/pulse state
// for gate/CV consumers, and raw MIDI transport bytes for MIDI outputs.
type Listener interface {
	OnClockOutput(OutputState)
	OnClockMidi(byte)
}

// SlaveConfig is one external clock source's configuration.
type SlaveConfig struct {
	Divisor int // MIDI-clock bytes per emitted sequencer tick
	Enabled bool
}

const slaveCount = 2

// Clock is the master/slave transport clock. All state transitions are
// synchronous method calls; Run drives the master-mode timer goroutine
// (the "clock timer ISR" of spec.md §5). The tick counter and event set
// are atomics, but that goroutine is not lock-free: on every firing it
// takes mu to read the tempo and to run the output divider.
type Clock struct {
	mu sync.Mutex // guards mode/role/bpm/output/slave state; also taken once per tick by Run and slaveTick

	mode       Mode
	activeRole ActiveRole
	running    bool

	masterBpm float64

	tick     atomic.Uint32
	eventSet atomic.Uint32

	lastConsumedTick uint32

	outputDivisor  int
	outputPulseUs  int
	swingPercent   int
	pulseCounter   uint32

	slaves          [slaveCount]SlaveConfig
	slaveSub        [slaveCount]uint32
	activeSlave     int // -1 if none
	slaveIntervalMs float64
	slaveLastTick   time.Time
	slaveBpmFilter  float64

	driftBoundMs float64
	driftCount   int // spec.md §7's SlaveDrift counter; never aborts playback

	listener Listener
}

// New returns an idle clock: mode Auto, masterBpm 120, output divisor 24
// (1/16-note at 96 PPQN), pulse width 1000us — the defaults of spec.md §6.
func New(listener Listener) *Clock {
	c := &Clock{
		mode:          ModeAuto,
		masterBpm:     120.0,
		outputDivisor: 24,
		outputPulseUs: 1000,
		swingPercent:  50,
		activeSlave:   -1,
		driftBoundMs:  8.0,
		listener:      listener,
	}
	return c
}

// PPQN is the internal tick resolution, spec.md §6's default configuration.
const PPQN = 96

func (c *Clock) IsIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.running
}

func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Clock) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Clock) ActiveRole() ActiveRole {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRole
}

// SetMode changes the mode selector. Per spec.md §4.4, changing mode while
// running stops the clock first.
func (c *Clock) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.stopLocked()
	}
	c.mode = m
}

// SetMasterBpm is valid in any state (spec.md §4.4).
func (c *Clock) SetMasterBpm(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bpm < 1 {
		bpm = 1
	}
	if bpm > 1000 {
		bpm = 1000
	}
	c.masterBpm = bpm
}

func (c *Clock) MasterBpm() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masterBpm
}

// TickDuration returns the period of one sequencer tick at the current
// master BPM: 60 / (bpm * PPQN) seconds, confirmed against TestClock.cpp.
func (c *Clock) TickDuration() time.Duration {
	c.mu.Lock()
	bpm := c.masterBpm
	c.mu.Unlock()
	return tickDurationFor(bpm)
}

func tickDurationFor(bpm float64) time.Duration {
	seconds := 60.0 / (bpm * float64(PPQN))
	return time.Duration(seconds * float64(time.Second))
}

func (c *Clock) OutputConfigure(divisor, pulseWidthUs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if divisor < 1 {
		divisor = 1
	}
	c.outputDivisor = divisor
	if pulseWidthUs < 1 {
		pulseWidthUs = 1
	}
	c.outputPulseUs = pulseWidthUs
}

func (c *Clock) OutputConfigureSwing(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if percent < 50 {
		percent = 50
	}
	if percent > 75 {
		percent = 75
	}
	c.swingPercent = percent
}

func (c *Clock) SlaveConfigure(index, divisor int, enabled bool) {
	if index < 0 || index >= slaveCount {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if divisor < 1 {
		divisor = 1
	}
	c.slaves[index] = SlaveConfig{Divisor: divisor, Enabled: enabled}
}

// --- Master transport ---

func (c *Clock) MasterStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && c.activeRole == RoleSlave {
		return // slave active while running master start is ignored
	}
	c.running = true
	c.activeRole = RoleMaster
	c.tick.Store(0)
	c.lastConsumedTick = 0
	c.pulseCounter = 0
	c.latch(EventStart | EventReset)
	c.emitOutputLocked(true, true, false)
	c.listener.OnClockMidi(midiStart)
}

func (c *Clock) MasterStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.activeRole != RoleMaster {
		return
	}
	c.stopLocked()
	c.latch(EventStop)
	c.listener.OnClockMidi(midiStop)
}

func (c *Clock) MasterContinue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && c.activeRole == RoleSlave {
		return
	}
	c.running = true
	c.activeRole = RoleMaster
	c.latch(EventContinue)
	c.listener.OnClockMidi(midiContinue)
}

func (c *Clock) MasterReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.tick.Store(0)
	c.lastConsumedTick = 0
	c.latch(EventReset)
}

func (c *Clock) stopLocked() {
	c.running = false
	c.activeRole = RoleNone
	c.activeSlave = -1
}

// --- Slave transport ---

// SlaveStart activates a slave source if enabled and no master/other slave
// is currently running; a disabled slave's Start is ignored (stays idle).
func (c *Clock) SlaveStart(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= slaveCount || !c.slaves[index].Enabled {
		return
	}
	if c.running && c.activeRole == RoleMaster {
		return // master active while running: slave start ignored
	}
	if c.running && c.activeRole == RoleSlave && c.activeSlave != index {
		return // a different slave is already active until Reset
	}
	c.running = true
	c.activeRole = RoleSlave
	c.activeSlave = index
	c.slaveSub[index] = 0
	c.tick.Store(0)
	c.lastConsumedTick = 0
	c.latch(EventStart | EventReset)
}

func (c *Clock) SlaveStop(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeRole != RoleSlave || c.activeSlave != index {
		return
	}
	c.stopLocked()
	c.latch(EventStop)
}

// SlaveHandleMidi drives a slave's state from raw inbound MIDI transport
// bytes, per spec.md's end-to-end scenario 4.
func (c *Clock) SlaveHandleMidi(index int, b byte) {
	switch b {
	case midiStart:
		c.SlaveStart(index)
	case midiStop:
		c.SlaveStop(index)
	case midiContinue:
		c.mu.Lock()
		if c.activeRole == RoleNone || (c.activeRole == RoleSlave && c.activeSlave == index) {
			c.running = true
			c.activeRole = RoleSlave
			c.activeSlave = index
			c.latch(EventContinue)
		}
		c.mu.Unlock()
	case midiClock:
		c.slaveTick(index)
	}
}

func (c *Clock) slaveTick(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeRole != RoleSlave || c.activeSlave != index || !c.running {
		return
	}

	now := time.Now()
	if !c.slaveLastTick.IsZero() {
		interval := now.Sub(c.slaveLastTick).Seconds() * 1000.0
		c.slaveIntervalMs = interval
		if c.slaveBpmFilter == 0 {
			c.slaveBpmFilter = interval
		} else {
			// SlaveDrift (spec.md §7): raw interval deviating from the
			// filtered estimate by more than driftBoundMs is jitter beyond
			// what the low-pass filter absorbs. Counted, never fatal.
			if diff := interval - c.slaveBpmFilter; diff > c.driftBoundMs || diff < -c.driftBoundMs {
				c.driftCount++
			}
			// simple low-pass filter for the effective inter-tick interval
			c.slaveBpmFilter = c.slaveBpmFilter*0.8 + interval*0.2
		}
	}
	c.slaveLastTick = now

	c.slaveSub[index]++
	div := c.slaves[index].Divisor
	if div < 1 {
		div = 1
	}
	if c.slaveSub[index] >= uint32(div) {
		c.slaveSub[index] = 0
		c.tick.Add(1)
		c.emitOutputForTickLocked()
	}
}

// EstimatedSlaveBpm derives an effective BPM from the slave's filtered
// inter-clock-byte interval (24 clock bytes per quarter note, MIDI spec).
func (c *Clock) EstimatedSlaveBpm() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slaveBpmFilter <= 0 {
		return 0
	}
	msPerQuarter := c.slaveBpmFilter * 24.0
	return 60000.0 / msPerQuarter
}

// DriftCount reports how many inbound slave clock bytes have arrived more
// than DriftBoundMs away from the filtered interval estimate (spec.md
// §7's SlaveDrift error kind — a counter, never fatal).
func (c *Clock) DriftCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driftCount
}

// SetDriftBoundMs configures the jitter bound SlaveDrift is measured
// against.
func (c *Clock) SetDriftBoundMs(ms float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms < 0 {
		ms = 0
	}
	c.driftBoundMs = ms
}

// --- Events / ticks ---

func (c *Clock) latch(bits uint32) {
	for {
		old := c.eventSet.Load()
		if c.eventSet.CompareAndSwap(old, old|bits) {
			return
		}
	}
}

// CheckEvent returns and clears the pending event bit-set.
func (c *Clock) CheckEvent() uint32 {
	return c.eventSet.Swap(0)
}

// CheckTick returns the next unconsumed tick index, advancing one tick per
// call so a slow consumer drains ticks one at a time rather than skipping.
func (c *Clock) CheckTick() (uint32, bool) {
	current := c.tick.Load()
	if c.lastConsumedTick == current {
		return 0, false
	}
	c.lastConsumedTick++
	return c.lastConsumedTick, true
}

// Tick returns the raw tick counter (for callers that just want "now").
func (c *Clock) Tick() uint32 { return c.tick.Load() }

// --- Output stage ---

func (c *Clock) emitOutputLocked(run, reset, pulse bool) {
	if c.listener != nil {
		c.listener.OnClockOutput(OutputState{Run: run, Reset: reset, Pulse: pulse})
	}
}

// emitOutputForTickLocked divides the sequencer tick by the configured
// output divisor (spec.md §4.4). It does not apply swing: every pulse is
// emitted on the tick it falls due; see SwingDelay.
func (c *Clock) emitOutputForTickLocked() {
	c.pulseCounter++
	if int(c.pulseCounter) < c.outputDivisor {
		return
	}
	c.pulseCounter = 0
	c.emitOutputLocked(c.running, false, true)
}

// SwingDelay returns the delay, as a fraction of the output half-period,
// that an even-numbered output pulse should be shifted by, per spec.md
// §4.4: (swing-50)/50 * half-period. emitOutputForTickLocked always fires
// Pulse at the tick boundary the caller schedules against; it's the
// foreground consumer that reads this delay and holds an even-numbered
// pulse back against its own tick clock, so no delay is applied here.
func (c *Clock) SwingDelay(halfPeriod time.Duration) time.Duration {
	c.mu.Lock()
	swing := c.swingPercent
	c.mu.Unlock()
	frac := float64(swing-50) / 50.0
	return time.Duration(frac * float64(halfPeriod))
}

const (
	midiStart    = midi.StatusStart
	midiStop     = midi.StatusStop
	midiContinue = midi.StatusContinue
	midiClock    = midi.StatusClock
)

// Run drives the master-mode tick generator until ctx is cancelled. It is
// the goroutine-side equivalent of the hardware timer ISR in spec.md §5:
// each firing increments the tick counter and emits the divided output
// pulse, touching only atomics plus the mutex-guarded config fields (never
// held across a channel send or blocking call).
func (c *Clock) Run(ctx context.Context) {
	timer := time.NewTimer(c.TickDuration())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			c.mu.Lock()
			isMaster := c.running && c.activeRole == RoleMaster
			period := tickDurationFor(c.masterBpm)
			c.mu.Unlock()

			if isMaster {
				c.tick.Add(1)
				c.mu.Lock()
				c.emitOutputForTickLocked()
				c.mu.Unlock()
			}
			timer.Reset(period)
		}
	}
}
