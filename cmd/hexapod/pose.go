package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/multierr"

	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/robot"
)

type PoseCommand struct {
	Config string  `long:"config" short:"c" default:"hexapod.json" description:"Config file (built-in geometry if missing)"`
	Hip    float64 `long:"hip" default:"60" description:"Hip pitch (second joint) angle in degrees"`
	Knee   float64 `long:"knee" default:"75" description:"Knee (third joint) angle in degrees"`
}

func (c *PoseCommand) Execute(args []string) error {
	geometry := kinematics.DefaultGeometry()
	source := "built-in geometry"
	if robot.ConfigExists(c.Config) {
		cfg, err := robot.LoadConfigFrom(c.Config)
		if err != nil {
			return err
		}
		if geometry, err = cfg.Geometry(); err != nil {
			return err
		}
		source = c.Config
	}

	pose := kinematics.StandbyPose(geometry, c.Hip, c.Knee)
	angles, solveErr := kinematics.Solve(geometry, pose)
	unreachable := unreachableLegs(solveErr)

	rows := make([][]string, 0, kinematics.NumLegs)
	for leg, name := range robot.AllLegs() {
		foot := pose[leg]
		row := []string{
			string(name),
			fmt.Sprintf("%.1f, %.1f, %.1f", foot.X, foot.Y, foot.Z),
		}
		if unreachable[leg] {
			row = append(row, "-", "-", "-")
		} else {
			a := angles[leg]
			row = append(row,
				fmt.Sprintf("%.2f", a.Hip),
				fmt.Sprintf("%.2f", a.Knee),
				fmt.Sprintf("%.2f", a.Ankle),
			)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Leg", "Foot (mm)", "Hip", "Knee", "Ankle").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	inner, outer := geometry.Reach()
	fmt.Println(headerStyle.Render(fmt.Sprintf("Posture hip %.1f° knee %.1f°", c.Hip, c.Knee)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%s, reach %.2f-%.2f mm", source, inner, outer)))
	fmt.Println(t.Render())

	if solveErr != nil {
		fmt.Println(warnStyle.Render(solveErr.Error()))
	}
	return nil
}

// unreachableLegs marks the legs named in a Solve error.
func unreachableLegs(err error) [kinematics.NumLegs]bool {
	var legs [kinematics.NumLegs]bool
	for _, e := range multierr.Errors(err) {
		var ute *kinematics.UnreachableTargetError
		if errors.As(e, &ute) && ute.Leg >= 0 && ute.Leg < kinematics.NumLegs {
			legs[ute.Leg] = true
		}
	}
	return legs
}
