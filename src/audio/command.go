package audio

import (
	"fmt"
	"math"
)

// ----- Command Kind ----- //

// CommandKind tags the variant carried by a Command.
type CommandKind int

const (
	commandNone CommandKind = iota
	CommandNoteOn
	CommandNoteOff
	CommandSetFrequency
	CommandSetAmplitude
)

var commandKindNames = [...]string{
	commandNone:         "none",
	CommandNoteOn:       "note_on",
	CommandNoteOff:      "note_off",
	CommandSetFrequency: "set_frequency",
	CommandSetAmplitude: "set_amplitude",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandKindNames) {
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
	return commandKindNames[k]
}

// ----- Command ----- //

// Command is a single parameter change sent from the control side to the
// audio side. Value is only meaningful for SetFrequency and SetAmplitude and
// is always normalized to [0,1].
type Command struct {
	Kind  CommandKind
	Value float64
}

// NoteOn opens the gate.
func NoteOn() Command {
	return Command{Kind: CommandNoteOn}
}

// NoteOff closes the gate.
func NoteOff() Command {
	return Command{Kind: CommandNoteOff}
}

// SetFrequency moves the oscillator between 440 Hz (0) and 2000 Hz (1).
func SetFrequency(v float64) Command {
	return Command{Kind: CommandSetFrequency, Value: normalize(v)}
}

// SetAmplitude sets the output level, 0 is silent and 1 is full scale.
func SetAmplitude(v float64) Command {
	return Command{Kind: CommandSetAmplitude, Value: normalize(v)}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandSetFrequency, CommandSetAmplitude:
		return fmt.Sprintf("%s(%.3f)", c.Kind, c.Value)
	default:
		return c.Kind.String()
	}
}

func normalize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
