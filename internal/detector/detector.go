package detector

// Detector is a strategy that determines if a service is running.
// Implementations may match process command lines, run a probe command,
// or check a PID number. It must be safe for concurrent use.
type Detector interface {
	// Alive returns true if the service is detected as running.
	Alive() (bool, error)
	// Describe returns a human-readable description of the detection method.
	Describe() string
}
