package audio

// DegenerateLevel is reported for devices exposing a single volume step (or a
// bogus step count of zero): there is no attenuation range, so the device is
// considered to be at full output.
const DegenerateLevel = 100

// VolumeState is a point-in-time read of the active endpoint's volume control.
type VolumeState struct {
	Step      uint32
	StepCount uint32
	Muted     bool
}

// Level converts the state to a displayable percentage in [0,100].
func (s VolumeState) Level() int {
	if s.Muted {
		return 0
	}
	if s.StepCount <= 1 {
		return DegenerateLevel
	}

	level := uint64(s.Step) * 100 / uint64(s.StepCount-1)
	if level > 100 {
		return 100
	}
	return int(level)
}
