package orderstatus

import (
	"encoding/json"
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Completed reports whether the status is the terminal display state.
func (s Status) Completed() bool {
	return s.Name == Statuses.Completed.Name
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Name)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.Name)
}

type Enum struct {
	New        Status
	Preparing  Status
	Ready      Status
	InProgress Status
	Completed  Status
}

var Statuses = Enum{
	New:        Status{Name: "new"},
	Preparing:  Status{Name: "preparing"},
	Ready:      Status{Name: "ready"},
	InProgress: Status{Name: "inprogress"},
	Completed:  Status{Name: "completed"},
}

var All = []Status{
	Statuses.New,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.InProgress,
	Statuses.Completed,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
