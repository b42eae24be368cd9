package domain

// Vehicle describes the towed vehicle. It is a read-only input to
// pricing and is never mutated by the dispatch core.
type Vehicle struct {
	ID      string
	JobID   string
	Type    string // e.g. "MOTORCYCLE", "PRIVATE", "SUV", "TRUCK"
	Plate   string
	Defects string
}
