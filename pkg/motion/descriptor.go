// Package motion describes what the legs should be doing: hold a single
// posture, or loop a multi-frame motion.
package motion

import (
	"errors"

	"github.com/gwillem/hexapod/pkg/kinematics"
)

// Kind tells postures and motions apart.
type Kind int

const (
	KindPosture Kind = iota
	KindMotion
)

func (k Kind) String() string {
	switch k {
	case KindPosture:
		return "posture"
	case KindMotion:
		return "motion"
	default:
		return "unknown"
	}
}

// ErrEmptyMotion is returned when a motion is built without frames.
var ErrEmptyMotion = errors.New("motion has no frames")

// Descriptor is either a static posture (Pose) or a cyclic motion (Frames).
// The controller, not the descriptor, loops a motion.
type Descriptor struct {
	Kind   Kind
	Pose   kinematics.BodyPose
	Frames []kinematics.BodyPose
}

// Posture returns a descriptor holding pose.
func Posture(pose kinematics.BodyPose) Descriptor {
	return Descriptor{Kind: KindPosture, Pose: pose}
}

// Motion returns a descriptor that cycles through frames.
func Motion(frames []kinematics.BodyPose) (Descriptor, error) {
	if len(frames) == 0 {
		return Descriptor{}, ErrEmptyMotion
	}
	return Descriptor{Kind: KindMotion, Frames: frames}, nil
}

// Len returns the number of frames in one cycle; a posture has one.
func (d Descriptor) Len() int {
	if d.Kind == KindMotion {
		return len(d.Frames)
	}
	return 1
}

// Frame returns the pose for frame i of the cycle. Postures ignore i.
func (d Descriptor) Frame(i int) kinematics.BodyPose {
	if d.Kind == KindMotion {
		return d.Frames[i]
	}
	return d.Pose
}
