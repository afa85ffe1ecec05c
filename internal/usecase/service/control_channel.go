package service

import "context"

// ControlChannel is an open, authenticated connection to the control daemon.
// Lines are exchanged without their terminators.
type ControlChannel interface {
	// ReadLine blocks until the next reply line arrives or the channel ends.
	ReadLine() (string, error)
	// WriteLine sends one command line.
	WriteLine(line string) error
	// Close ends the channel. Closing twice is not an error.
	Close() error
}

// ControlDialer opens control channels.
type ControlDialer interface {
	Dial(ctx context.Context) (ControlChannel, error)
}
