package motion

import (
	"fmt"
	"sort"

	"github.com/gwillem/hexapod/pkg/gait"
	"github.com/gwillem/hexapod/pkg/kinematics"
)

// Command tokens. Matching is exact and case-sensitive.
const (
	CmdStandby       = "standby"
	CmdLaydown       = "laydown"
	CmdWalk0         = "walk0"
	CmdWalk180       = "walk180"
	CmdWalkR45       = "walkr45"
	CmdWalkR90       = "walkr90"
	CmdWalkR135      = "walkr135"
	CmdWalkL45       = "walkl45"
	CmdWalkL90       = "walkl90"
	CmdWalkL135      = "walkl135"
	CmdFastForward   = "fastforward"
	CmdFastBackward  = "fastbackward"
	CmdTurnLeft      = "turnleft"
	CmdTurnRight     = "turnright"
	CmdClimbForward  = "climbforward"
	CmdClimbBackward = "climbbackward"
	CmdRotateX       = "rotatex"
	CmdRotateY       = "rotatey"
	CmdRotateZ       = "rotatez"
	CmdTwist         = "twist"
)

// PostureAngles are the second and third joint angles, in degrees, of a
// resting posture. See kinematics.StandbyPose.
type PostureAngles struct {
	HipPitch float64 `json:"hipPitch" mapstructure:"hipPitch"`
	Knee     float64 `json:"knee" mapstructure:"knee"`
}

// Default resting postures.
var (
	DefaultStandby = PostureAngles{HipPitch: 60, Knee: 75}
	DefaultLaydown = PostureAngles{HipPitch: 0, Knee: 15}
)

// Catalog maps command tokens to descriptors. It is read-only once built.
type Catalog struct {
	standby Descriptor
	entries map[string]Descriptor
}

// NewCatalog builds a catalog from entries, which must include a posture
// under CmdStandby. The map is copied.
func NewCatalog(entries map[string]Descriptor) (*Catalog, error) {
	standby, ok := entries[CmdStandby]
	if !ok {
		return nil, fmt.Errorf("catalog: missing %q entry", CmdStandby)
	}
	if standby.Kind != KindPosture {
		return nil, fmt.Errorf("catalog: %q must be a posture, got %s", CmdStandby, standby.Kind)
	}

	c := &Catalog{
		standby: standby,
		entries: make(map[string]Descriptor, len(entries)),
	}
	for token, d := range entries {
		if d.Kind == KindMotion && len(d.Frames) == 0 {
			return nil, fmt.Errorf("catalog: %q: %w", token, ErrEmptyMotion)
		}
		c.entries[token] = d
	}
	return c, nil
}

// DefaultCatalog runs the gait generators against the standby pose and
// returns the catalog of every known command.
func DefaultCatalog(g kinematics.Geometry, standby, laydown PostureAngles) (*Catalog, error) {
	pose := kinematics.StandbyPose(g, standby.HipPitch, standby.Knee)

	motions := map[string][]kinematics.BodyPose{
		CmdWalk0:         gait.Walk(pose, 0),
		CmdWalk180:       gait.Walk(pose, 180),
		CmdWalkR45:       gait.Walk(pose, 315),
		CmdWalkR90:       gait.Walk(pose, 270),
		CmdWalkR135:      gait.Walk(pose, 225),
		CmdWalkL45:       gait.Walk(pose, 45),
		CmdWalkL90:       gait.Walk(pose, 90),
		CmdWalkL135:      gait.Walk(pose, 135),
		CmdFastForward:   gait.FastWalk(pose, false),
		CmdFastBackward:  gait.FastWalk(pose, true),
		CmdTurnLeft:      gait.Turn(pose, true),
		CmdTurnRight:     gait.Turn(pose, false),
		CmdClimbForward:  gait.Climb(pose, false),
		CmdClimbBackward: gait.Climb(pose, true),
		CmdRotateX:       gait.RotateX(pose),
		CmdRotateY:       gait.RotateY(pose),
		CmdRotateZ:       gait.RotateZ(pose),
		CmdTwist:         gait.Twist(pose),
	}

	entries := map[string]Descriptor{
		CmdStandby: Posture(pose),
		CmdLaydown: Posture(kinematics.StandbyPose(g, laydown.HipPitch, laydown.Knee)),
	}
	for token, frames := range motions {
		d, err := Motion(frames)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", token, err)
		}
		entries[token] = d
	}

	return NewCatalog(entries)
}

// Resolve looks up token. Unknown tokens resolve to the standby posture and
// report false.
func (c *Catalog) Resolve(token string) (Descriptor, bool) {
	d, ok := c.entries[token]
	if !ok {
		return c.standby, false
	}
	return d, true
}

// Standby returns the standby posture.
func (c *Catalog) Standby() Descriptor {
	return c.standby
}

// Tokens returns every known token in sorted order.
func (c *Catalog) Tokens() []string {
	tokens := make([]string, 0, len(c.entries))
	for token := range c.entries {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
