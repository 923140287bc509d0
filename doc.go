// Package hexapod drives a six-legged walking robot from short text commands.
//
// Clients send commands such as "walk0" or "standby" over TCP or WebSocket. Each
// command names a motion from a fixed catalog; the controller plays its frames
// one per tick, solving inverse kinematics for all six legs and writing the
// servo angles to the configured driver.
//
// # Installation
//
//	go install github.com/gwillem/hexapod/cmd/hexapod@latest
//
// # Usage
//
// First, run setup to choose the servo driver and write hexapod.json:
//
//	hexapod setup
//
// Then start the robot, optionally with a live terminal monitor:
//
//	hexapod run --monitor
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/hexapod: CLI with setup, run, pose and scan commands
//   - pkg/kinematics: leg geometry and the inverse kinematics solver
//   - pkg/gait: foot trajectory generators
//   - pkg/motion: motion descriptors and the command catalog
//   - pkg/command: command queue and wire protocol
//   - pkg/transport: TCP and WebSocket listeners
//   - pkg/control: tick-driven motion scheduler
//   - pkg/actuator: PCA9685, Feetech and recording servo sinks
//   - pkg/robot: configuration and servo calibration
//   - pkg/logging: zerolog setup
package hexapod
