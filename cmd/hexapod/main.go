package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Run   RunCommand   `command:"run" description:"Start the listeners and the motion control loop"`
	Setup SetupCommand `command:"setup" description:"Choose the servo driver and transports, then write the config file"`
	Pose  PoseCommand  `command:"pose" description:"Print the joint angles of a resting posture"`
	Scan  ScanCommand  `command:"scan" description:"List serial ports and the servos found on them"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Hexapod - six-legged robot controller"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
