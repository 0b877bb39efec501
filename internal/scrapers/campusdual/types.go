package campusdual

import (
	"bytes"
	"fmt"
)

// Tristate is a pass/fail flag that may be explicitly undetermined.
type Tristate int8

const (
	Unknown Tristate = iota
	True
	False
)

func tristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Bool returns the flag and whether it is determined at all.
func (t Tristate) Bool() (value bool, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	}
	return false, false
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (t *Tristate) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*t = True
	case "false":
		*t = False
	case "null":
		*t = Unknown
	default:
		return fmt.Errorf("invalid tristate %q", data)
	}
	return nil
}

// Grade is the outcome of one academic module.
type Grade struct {
	Name         string     `json:"name"`
	Grade        string     `json:"grade"`
	TotalPassed  Tristate   `json:"total_passed"`
	CreditPoints int        `json:"credit_points"`
	Period       string     `json:"akad_period"`
	Subgrades    []Subgrade `json:"subgrades"`
}

// Subgrade is one assessment attempt within a module, Retake carries the attempt
// marker the portal renders next to retaken assessments.
type Subgrade struct {
	Name        string            `json:"name"`
	Grade       string            `json:"grade"`
	Passed      Tristate          `json:"passed"`
	AssessedOn  string            `json:"beurteilung"`
	AnnouncedOn string            `json:"bekanntgabe"`
	Retake      *string           `json:"wiederholung"`
	Period      string            `json:"akad_period"`
	Metadata    *SubgradeMetadata `json:"internal_metadata"`
}

type SubgradeMetadata struct {
	Module string `json:"module"`
	Peryr  string `json:"peryr"`
	Perid  string `json:"perid"`
}

// ExamOption holds the fields shared by sign-up and sign-off options.
type ExamOption struct {
	Name           string                `json:"name"`
	Procedure      string                `json:"verfahren"`
	ExamType       string                `json:"pruefart"`
	Status         Status                `json:"status"`
	Information    string                `json:"signup_information"`
	ExamDate       *string               `json:"exam_date"`
	ExamTime       *string               `json:"exam_time"`
	ExamRoom       *string               `json:"exam_room"`
	WarningMessage *string               `json:"warning_message"`
	Metadata       *RegistrationMetadata `json:"internal_metadata"`
}

// SignupOption is an exam the student can still register for.
type SignupOption struct {
	ExamOption
	SignupUntil *string `json:"signup_until"`
}

// SignoffOption is a registered exam the student can still withdraw from.
type SignoffOption struct {
	ExamOption
	SignoffUntil *string `json:"signoff_until"`
}

// RegistrationMetadata identifies an exam offer for the portal's booking requests.
type RegistrationMetadata struct {
	Assessment string `json:"assessment"`
	Peryr      string `json:"peryr"`
	Perid      string `json:"perid"`
	Offerno    string `json:"offerno"`
}
