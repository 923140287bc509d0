package actuator

import (
	"context"
	"errors"
	"sync"

	"github.com/gwillem/hexapod/pkg/kinematics"
)

// orderLogSize bounds how many recent writes Recorder.Order keeps.
const orderLogSize = 8 * kinematics.NumLegs

// ErrClosed is returned when writing to a closed sink.
var ErrClosed = errors.New("actuator closed")

// Recorder is an in-memory sink. It keeps the last angles written per leg
// and is used for dry runs and tests.
type Recorder struct {
	mu     sync.Mutex
	angles [kinematics.NumLegs]kinematics.LegAngles
	writes [kinematics.NumLegs]int
	order  []int
	fail   map[int]error
	closed bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[int]error)}
}

// ApplyJointAngles records angles for leg.
func (r *Recorder) ApplyJointAngles(ctx context.Context, leg int, angles kinematics.LegAngles) error {
	if err := checkLeg(leg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.fail[leg]; err != nil {
		return err
	}
	r.angles[leg] = angles
	r.writes[leg]++
	r.order = append(r.order, leg)
	if len(r.order) > orderLogSize {
		r.order = r.order[len(r.order)-orderLogSize:]
	}
	return nil
}

// FailLeg makes every later write to leg return err. A nil err clears it.
func (r *Recorder) FailLeg(leg int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, leg)
		return
	}
	r.fail[leg] = err
}

// Last returns the last angles written to leg.
func (r *Recorder) Last(leg int) kinematics.LegAngles {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.angles[leg]
}

// Writes returns how many times leg was written.
func (r *Recorder) Writes(leg int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[leg]
}

// Order returns the leg indices of the most recent writes, oldest first.
func (r *Recorder) Order() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.order...)
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
