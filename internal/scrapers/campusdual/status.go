package campusdual

import (
	"fmt"
	"strings"
)

// Status is the registration state shown by the icon of an exam option's detail row.
type Status int

const (
	StatusUnclassified Status = iota
	StatusMissed
	StatusPendingRegistration
	StatusWarning
)

// statusIcons maps icon file names to their status, the first contained name wins.
var statusIcons = []struct {
	file   string
	status Status
}{
	{file: "missed.png", status: StatusMissed},
	{file: "yellow.png", status: StatusPendingRegistration},
	{file: "exclamation.jpg", status: StatusWarning},
}

// ClassifyStatus maps a status icon reference to its Status, anything unknown is StatusUnclassified.
func ClassifyStatus(iconSrc string) Status {
	for _, icon := range statusIcons {
		if strings.Contains(iconSrc, icon.file) {
			return icon.status
		}
	}
	return StatusUnclassified
}

var statusNames = map[Status]string{
	StatusUnclassified:        "unclassified",
	StatusMissed:              "missed",
	StatusPendingRegistration: "pending_registration",
	StatusWarning:             "warning",
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return statusNames[StatusUnclassified]
	}
	return name
}

// Symbol is the glyph the portal's mobile clients show for the status.
func (s Status) Symbol() string {
	switch s {
	case StatusMissed:
		return "🚫"
	case StatusPendingRegistration:
		return "📝"
	case StatusWarning:
		return "⚠️"
	}
	return "⁉️"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
