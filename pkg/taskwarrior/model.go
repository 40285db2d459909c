package taskwarrior

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
	RECURRING = "recurring"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CustomTime.
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.Format(taskwarriorTimeLayout) + `"`), nil
}

// set reports whether ct holds a real timestamp.
func (ct *CustomTime) set() bool {
	return ct != nil && !ct.Time.IsZero()
}

// Depends accepts both the array form of Taskwarrior 2.6+ and the older
// comma-separated string.
type Depends []string

func (d *Depends) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*d = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("failed to parse depends %s: %w", b, err)
	}
	*d = nil
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			*d = append(*d, id)
		}
	}
	return nil
}

type Annotation struct {
	Description string      `json:"description"`
	Entry       *CustomTime `json:"entry"`
}

type Task struct {
	UUID        string       `json:"uuid"`
	Description string       `json:"description"`
	Entry       *CustomTime  `json:"entry,omitempty"`
	Due         *CustomTime  `json:"due,omitempty"`
	Scheduled   *CustomTime  `json:"scheduled,omitempty"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority,omitempty"`
	Project     string       `json:"project,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Depends     Depends      `json:"depends,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Start       *CustomTime  `json:"start,omitempty"`
	End         *CustomTime  `json:"end,omitempty"`
	// UDAs configured as uda.estimate.label=est and uda.actual.label=act.
	Est string `json:"est,omitempty"`
	Act string `json:"act,omitempty"`
}
