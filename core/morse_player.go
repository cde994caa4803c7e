package core

// morseCursor is the playback position within one message. A cursor is
// created by Start and afterwards only touched from the tick context.
type morseCursor struct {
	msg    string
	repeat bool
	pos    int
	code   uint16
	bits   uint8
}

// MorsePlayer plays a message on an indicator, one bit per tick.
// There is at most one live message; starting another discards it.
type MorsePlayer struct {
	out    *Indicator
	cursor *morseCursor // nil when idle, guarded by the tick section
	log    *EventLog
}

// NewMorsePlayer creates an idle player driving out.
func NewMorsePlayer(out *Indicator, log *EventLog) *MorsePlayer {
	return &MorsePlayer{out: out, log: log}
}

// Start replaces any in-flight message with text and turns the indicator
// off. The swap happens with the tick masked, so the next Advance always
// plays the first bit of text. An empty text leaves the player idle.
func (p *MorsePlayer) Start(text string, repeat bool) {
	var next *morseCursor
	if text != "" {
		next = &morseCursor{msg: text, repeat: repeat}
	}

	state := disableInterrupts()
	p.cursor = next
	p.out.Set(false)
	restoreInterrupts(state)

	var r uint32
	if repeat {
		r = 1
	}
	p.log.Record(EvtSignalStart, uint32(len(text)), r)
}

// Stop idles the player, leaving the indicator at its current level.
func (p *MorsePlayer) Stop() {
	state := disableInterrupts()
	p.cursor = nil
	restoreInterrupts(state)
}

// Playing reports whether a message is still being played.
func (p *MorsePlayer) Playing() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return p.cursor != nil
}

// Message returns the live message and its repeat flag.
func (p *MorsePlayer) Message() (string, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if p.cursor == nil {
		return "", false
	}
	return p.cursor.msg, p.cursor.repeat
}

// Advance emits one bit. Must be called with the tick section held, which
// TickScheduler.OnTick does.
func (p *MorsePlayer) Advance() {
	c := p.cursor
	if c == nil {
		return
	}

	if c.bits == 0 {
		if c.pos >= len(c.msg) {
			if !c.repeat {
				p.cursor = nil
				p.log.Record(EvtSignalIdle, 0, 0)
				return
			}
			c.pos = 0
		}
		sym := LookupMorse(c.msg[c.pos])
		c.pos++
		c.code = sym.Code
		c.bits = sym.Bits
	}

	p.out.Set(c.code&1 == 1)
	c.code >>= 1
	c.bits--
}
