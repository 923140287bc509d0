package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/hexapod/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// servoCount is the number of servos on a complete robot.
const servoCount = 6 * robot.NumJoints

type SetupCommand struct {
	Config string `long:"config" short:"c" default:"hexapod.json" description:"Config file to write"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Hexapod Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	// Start from the existing file so geometry and trims survive a re-run.
	config := robot.DefaultConfig()
	if robot.ConfigExists(c.Config) {
		existing, err := robot.LoadConfigFrom(c.Config)
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Ignoring invalid %s: %v", c.Config, err)))
		} else {
			config = existing
			fmt.Printf("Updating %s\n\n", c.Config)
		}
	}

	// Step 1: Servo driver
	fmt.Println(subHeaderStyle.Render("━━━ Servo driver ━━━"))
	fmt.Println()
	driver := config.Actuator.Driver
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How are the leg servos driven?").
				Options(
					huh.NewOption("Two PCA9685 PWM boards on I2C", robot.DriverPCA9685),
					huh.NewOption("Feetech STS serial bus", robot.DriverFeetech),
					huh.NewOption("Simulated (no hardware)", robot.DriverSim),
				).
				Value(&driver),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	config.Actuator.Driver = driver

	switch driver {
	case robot.DriverPCA9685:
		setupPCA9685(&config.Actuator.PCA9685)
	case robot.DriverFeetech:
		setupFeetech(&config.Actuator.Feetech)
	}

	// Step 2: Transports
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Transports ━━━"))
	fmt.Println()
	setupTransports(config)

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Save final config
	if err := config.SaveTo(c.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println()
	fmt.Println("Start the robot with: " + headerStyle.Render("hexapod run"))

	return nil
}

func setupPCA9685(cfg *robot.PCA9685Config) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("I2C bus").
				Description("Bus name or number, empty for the first bus found").
				Value(&cfg.Bus),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	fmt.Printf("  Boards at 0x%02x (right) and 0x%02x (left), %v Hz\n",
		cfg.RightAddress, cfg.LeftAddress, cfg.Frequency)
}

func setupFeetech(cfg *robot.FeetechConfig) {
	fmt.Println("Scanning serial ports for servos...")
	fmt.Println()

	ports := findServoPorts(cfg.BaudRate)
	if len(ports) == 0 {
		fmt.Println("No servos found.")
		fmt.Println("Make sure the servo bus is connected and powered on.")
		os.Exit(1)
	}

	var options []huh.Option[string]
	for _, p := range ports {
		label := fmt.Sprintf("%s (%d servos)", p.port, len(p.servos))
		options = append(options, huh.NewOption(label, p.port))
	}

	port := ports[0].port
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the servo bus on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	cfg.Port = port

	for _, p := range ports {
		if p.port == port && len(p.servos) != servoCount {
			fmt.Println(warnStyle.Render(fmt.Sprintf("  Expected %d servos on %s, found %d", servoCount, port, len(p.servos))))
		}
	}
}

func setupTransports(config *robot.Config) {
	tcp := config.TCP.Enabled
	ws := config.WebSocket.Enabled
	standby := config.StandbyOnDisconnect

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Accept TCP clients on %s?", config.TCP.Address)).
				Value(&tcp),
			huh.NewConfirm().
				Title(fmt.Sprintf("Accept WebSocket clients on %s%s?", config.WebSocket.Address, config.WebSocket.Path)).
				Value(&ws),
			huh.NewConfirm().
				Title("Return to standby when a client disconnects?").
				Value(&standby),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	config.TCP.Enabled = tcp
	config.WebSocket.Enabled = ws
	config.StandbyOnDisconnect = standby
}

type servoPort struct {
	port   string
	servos []feetech.FoundServo
}

func findServoPorts(baud int) []servoPort {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}
	if baud == 0 {
		baud = 1_000_000
	}

	var found []servoPort

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		servos, err := scanPort(port, baud)
		if err != nil || len(servos) == 0 {
			continue
		}
		fmt.Printf("  Found %d servo(s) on %s\n", len(servos), port)
		found = append(found, servoPort{port: port, servos: servos})
	}

	return found
}

func scanPort(port string, baud int) ([]feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	defer bus.Close()

	return bus.Scan(ctx, 1, servoCount)
}
