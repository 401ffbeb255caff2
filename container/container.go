package container

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type State uint8

const (
	Starting State = iota
	Running
	Stopped
	Removed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

func ParseState(s string) (State, error) {
	switch strings.ToLower(s) {
	case "starting":
		return Starting, nil
	case "running":
		return Running, nil
	case "stopped":
		return Stopped, nil
	case "removed":
		return Removed, nil
	default:
		return 0, fmt.Errorf("unknown container state %q", s)
	}
}

// CanTransition reports whether a container may move from s to next.
// Lifecycle moves are forward only and removed is terminal.
func (s State) CanTransition(next State) bool {
	return next >= s && s != Removed
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	st, err := ParseState(str)
	if err != nil {
		return err
	}
	*s = st

	return nil
}

type Container struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Container) Equal(o Container) bool {
	return c.ID == o.ID &&
		c.Name == o.Name &&
		c.State == o.State &&
		c.Image == o.Image &&
		c.CreatedAt.Equal(o.CreatedAt)
}

// Transition is one accepted lifecycle change of a container.
type Transition struct {
	ID   string    `json:"id"`
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Event is a lifecycle change reported by the container runtime.
type Event struct {
	ID    string
	Name  string
	Image string
	State State
	At    time.Time
}
