package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.bug.st/serial"

	"github.com/gwillem/hexapod/pkg/robot"
)

type ScanCommand struct {
	Baud int `long:"baud" default:"1000000" description:"Servo bus baud rate"`
}

func (c *ScanCommand) Execute(args []string) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}

	cal, err := robot.DefaultConfig().Calibration()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(ports))
	for _, port := range ports {
		servos, err := scanPort(port, c.Baud)
		if err != nil {
			rows = append(rows, []string{port, "-", dimStyle.Render(err.Error())})
			continue
		}

		sort.Slice(servos, func(i, j int) bool { return servos[i].ID < servos[j].ID })
		var joints []string
		for _, s := range servos {
			leg, joint, _, ok := cal.ByID(s.ID)
			if !ok {
				joints = append(joints, fmt.Sprintf("%d:?", s.ID))
				continue
			}
			joints = append(joints, fmt.Sprintf("%d:%s/%s", s.ID, robot.AllLegs()[leg], joint))
		}
		rows = append(rows, []string{port, fmt.Sprintf("%d", len(servos)), strings.Join(joints, " ")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Port", "Servos", "Joints").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	fmt.Println(t.Render())
	return nil
}
