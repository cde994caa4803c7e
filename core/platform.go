package core

import (
	"context"
	"errors"
)

// TargetLostMessage is the beacon raised by FatalError.
const TargetLostMessage = "TARGET LOST."

// PlatformConfig selects the driver and pins for the two indicators.
type PlatformConfig struct {
	Driver   GPIODriver
	RunPin   GPIOPin
	ErrorPin GPIOPin
}

// Platform owns all state shared between the tick and main-line code.
type Platform struct {
	RunLED    *Indicator
	ErrorLED  *Indicator
	Heartbeat *Heartbeat
	Countdown *Countdown
	Morse     *MorsePlayer
	Scheduler *TickScheduler
	Events    *EventLog
}

// NewPlatform configures the indicator outputs and wires the tick consumers.
func NewPlatform(cfg PlatformConfig) (*Platform, error) {
	if cfg.Driver == nil {
		return nil, errors.New("platform: no gpio driver")
	}
	if cfg.RunPin == cfg.ErrorPin {
		return nil, errors.New("platform: run and error indicators share pin " + utoa(uint32(cfg.RunPin)))
	}

	events := NewEventLog()

	runLED, err := NewIndicator("run", cfg.Driver, cfg.RunPin, events)
	if err != nil {
		return nil, errors.New("platform: configure run pin: " + err.Error())
	}
	errLED, err := NewIndicator("error", cfg.Driver, cfg.ErrorPin, events)
	if err != nil {
		return nil, errors.New("platform: configure error pin: " + err.Error())
	}

	p := &Platform{
		RunLED:    runLED,
		ErrorLED:  errLED,
		Heartbeat: NewHeartbeat(runLED),
		Countdown: NewCountdown(events),
		Morse:     NewMorsePlayer(errLED, events),
		Events:    events,
	}
	p.Scheduler = NewTickScheduler(p.Heartbeat, p.Countdown, p.Morse)
	events.SetClock(p.Scheduler.Ticks)
	return p, nil
}

// Signal starts playing text on the error indicator, replacing whatever was
// playing.
func (p *Platform) Signal(text string, repeat bool) {
	p.Morse.Start(text, repeat)
}

// SetRunning sets the run flag driving the heartbeat.
func (p *Platform) SetRunning(running bool) {
	p.Heartbeat.SetRunning(running)
}

// Delay blocks for ticks tick periods or until ctx is done.
func (p *Platform) Delay(ctx context.Context, ticks uint32) error {
	return p.Countdown.Delay(ctx, ticks)
}

// FatalError stops the heartbeat and raises the repeating target-lost
// beacon. It reports whether the probe was running, so the caller can pick
// the matching protocol reply.
func (p *Platform) FatalError() (wasRunning bool) {
	wasRunning = p.Heartbeat.Running()
	p.Heartbeat.SetRunning(false)
	p.Morse.Start(TargetLostMessage, true)

	var r uint32
	if wasRunning {
		r = 1
	}
	p.Events.Record(EvtFatal, r, 0)
	return wasRunning
}
