package models

import "fmt"

// SpeedTestTriggerCommand is the well-known command document polled by the
// benchmark trigger.
const SpeedTestTriggerCommand = "speed_test_trigger"

// CommandStatus is the lifecycle state of a stored command document.
type CommandStatus string

const (
	// CommandStatusAbsent means no document exists for the command yet.
	CommandStatusAbsent   CommandStatus = "absent"
	CommandStatusPending  CommandStatus = "pending"
	CommandStatusRunning  CommandStatus = "running"
	CommandStatusComplete CommandStatus = "complete"
)

func ParseCommandStatus(str string) (CommandStatus, error) {
	switch CommandStatus(str) {
	case CommandStatusAbsent, CommandStatusPending, CommandStatusRunning, CommandStatusComplete:
		return CommandStatus(str), nil
	}
	return CommandStatusAbsent, fmt.Errorf("invalid command status: %q", str)
}

// CanTransition reports whether moving to next is a legal lifecycle step.
// There is no automatic path back to pending; an external actor re-arms.
func (s CommandStatus) CanTransition(next CommandStatus) bool {
	switch s {
	case CommandStatusAbsent, CommandStatusComplete:
		return next == CommandStatusPending || next == CommandStatusRunning
	case CommandStatusPending:
		return next == CommandStatusRunning
	case CommandStatusRunning:
		return next == CommandStatusComplete
	}
	return false
}

// CommandState is the persisted form of a command document. The stored row
// is a serialization of the status enum plus the last transition time, not
// the source of truth for control flow.
type CommandState struct {
	Name      string        `json:"name" db:"name"`
	Status    CommandStatus `json:"status" db:"status"`
	Timestamp int64         `json:"timestamp" db:"timestamp"`
}
