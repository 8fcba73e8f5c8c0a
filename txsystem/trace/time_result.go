package trace

import "fmt"

// TimeResultType tells how the execution time of the VM transaction relates
// to the configured limits. Advisory only, doesn't affect the result code.
type TimeResultType uint8

const (
	TimeNormal TimeResultType = iota
	TimeLongRunning
	TimeOutOfTime
)

func (t TimeResultType) String() string {
	switch t {
	case TimeNormal:
		return "NORMAL"
	case TimeLongRunning:
		return "LONG_RUNNING"
	case TimeOutOfTime:
		return "OUT_OF_TIME"
	default:
		return fmt.Sprintf("TimeResultType(%d)", uint8(t))
	}
}

func (t TimeResultType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
