package driver

// Status describes where a unit is in the pipeline.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is a progress notification for one unit. A consumer (the
// terminal UI) reads these from a channel; the driver never blocks on a
// slow consumer beyond channel capacity.
type Event struct {
	Unit   string
	Status Status
}

func notify(events chan<- Event, unit string, status Status) {
	if events == nil {
		return
	}
	events <- Event{Unit: unit, Status: status}
}
