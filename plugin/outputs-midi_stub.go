//go:build nomidi

package plugin

import "time"

type MIDIOutput struct{}

func NewMIDIOutput(port int, velocity uint8, length time.Duration) (*MIDIOutput, error) {
	return nil, ErrMIDIDisabled
}

func (m *MIDIOutput) Audition(channel uint8, notes []uint8) error {
	return ErrMIDIDisabled
}

func (m *MIDIOutput) Flush() error { return nil }
func (m *MIDIOutput) Close() error { return nil }
func (m *MIDIOutput) Type() string { return "midi-disabled" }
