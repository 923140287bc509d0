package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/hexapod/pkg/kinematics"
)

var allTokens = []string{
	"climbbackward", "climbforward", "fastbackward", "fastforward",
	"laydown", "rotatex", "rotatey", "rotatez", "standby",
	"turnleft", "turnright", "twist",
	"walk0", "walk180", "walkl135", "walkl45", "walkl90",
	"walkr135", "walkr45", "walkr90",
}

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog(kinematics.DefaultGeometry(), DefaultStandby, DefaultLaydown)
	require.NoError(t, err)
	return c
}

func TestDefaultCatalog_Tokens(t *testing.T) {
	c := defaultCatalog(t)
	assert.Equal(t, allTokens, c.Tokens())

	for _, token := range allTokens {
		d, ok := c.Resolve(token)
		assert.True(t, ok, token)
		switch token {
		case CmdStandby, CmdLaydown:
			assert.Equal(t, KindPosture, d.Kind, token)
		default:
			assert.Equal(t, KindMotion, d.Kind, token)
			assert.NotEmpty(t, d.Frames, token)
		}
	}
}

func TestDefaultCatalog_EveryFrameReachable(t *testing.T) {
	g := kinematics.DefaultGeometry()
	c := defaultCatalog(t)

	for _, token := range c.Tokens() {
		d, _ := c.Resolve(token)
		for i := 0; i < d.Len(); i++ {
			_, err := kinematics.Solve(g, d.Frame(i))
			require.NoError(t, err, "%s frame %d", token, i)
		}
	}
}

func TestCatalog_UnknownTokenIsStandby(t *testing.T) {
	c := defaultCatalog(t)

	standby, ok := c.Resolve("standby")
	require.True(t, ok)

	for _, token := range []string{"jump", "", "Standby", "WALK0", "walk 0"} {
		d, ok := c.Resolve(token)
		assert.False(t, ok, token)
		assert.Equal(t, standby, d, token)
	}
	assert.Equal(t, standby, c.Standby())
}

func TestDefaultCatalog_StandbyPose(t *testing.T) {
	g := kinematics.DefaultGeometry()
	c := defaultCatalog(t)

	d, _ := c.Resolve(CmdStandby)
	assert.Equal(t, kinematics.StandbyPose(g, 60, 75), d.Pose)

	d, _ = c.Resolve(CmdLaydown)
	assert.Equal(t, kinematics.StandbyPose(g, 0, 15), d.Pose)
}

func TestNewCatalog_Validation(t *testing.T) {
	pose := kinematics.StandbyPose(kinematics.DefaultGeometry(), 60, 75)
	walk, err := Motion([]kinematics.BodyPose{pose, pose})
	require.NoError(t, err)

	tests := []struct {
		name    string
		entries map[string]Descriptor
	}{
		{"missing standby", map[string]Descriptor{CmdWalk0: walk}},
		{"standby is a motion", map[string]Descriptor{CmdStandby: walk}},
		{"empty motion", map[string]Descriptor{CmdStandby: Posture(pose), CmdTwist: {Kind: KindMotion}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.entries)
			assert.Error(t, err)
		})
	}
}

func TestNewCatalog_CopiesEntries(t *testing.T) {
	pose := kinematics.StandbyPose(kinematics.DefaultGeometry(), 60, 75)
	entries := map[string]Descriptor{CmdStandby: Posture(pose)}

	c, err := NewCatalog(entries)
	require.NoError(t, err)

	entries["later"] = Posture(pose)
	_, ok := c.Resolve("later")
	assert.False(t, ok)
}
