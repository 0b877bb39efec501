package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"campusdual-backend/internal/gradestore"
	"campusdual-backend/internal/scrapers/campusdual"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeJson(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func passedSymbol(passed campusdual.Tristate) string {
	switch passed {
	case campusdual.True:
		return "✓"
	case campusdual.False:
		return "✗"
	}
	return "?"
}

func orDash(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

func writeGrades(w io.Writer, format string, grades []campusdual.Grade) error {
	if format == formatJson {
		return writeJson(w, grades)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Module", "Grade", "Passed", "CP", "Announced", "Period"})
	for _, grade := range grades {
		announced := "-"
		if newest := campusdual.NewestAnnouncement(grade); !newest.Equal(campusdual.EarliestDate) {
			announced = newest.Format(campusdual.DateLayout)
		}
		t.AppendRow(table.Row{
			grade.Name,
			grade.Grade,
			passedSymbol(grade.TotalPassed),
			strconv.Itoa(grade.CreditPoints),
			announced,
			grade.Period,
		})
		for _, subgrade := range grade.Subgrades {
			name := "  " + subgrade.Name
			if subgrade.Retake != nil {
				name = fmt.Sprintf("%s (%s)", name, *subgrade.Retake)
			}
			t.AppendRow(table.Row{
				name,
				subgrade.Grade,
				passedSymbol(subgrade.Passed),
				"",
				subgrade.AnnouncedOn,
				subgrade.Period,
			})
		}
		t.AppendSeparator()
	}
	t.Render()
	return nil
}

func examOptionRow(option campusdual.ExamOption, deadline *string) table.Row {
	return table.Row{
		option.Status.Symbol(),
		option.Name,
		option.Procedure,
		option.ExamType,
		orDash(option.ExamDate),
		orDash(option.ExamTime),
		orDash(option.ExamRoom),
		orDash(deadline),
	}
}

var examOptionHeader = table.Row{"", "Module", "Procedure", "Type", "Date", "Time", "Room", "Until"}

func writeSignupOptions(w io.Writer, format string, options []campusdual.SignupOption) error {
	if format == formatJson {
		return writeJson(w, options)
	}

	t := newTable(w)
	t.AppendHeader(examOptionHeader)
	for _, option := range options {
		t.AppendRow(examOptionRow(option.ExamOption, option.SignupUntil))
	}
	t.Render()
	return nil
}

func writeSignoffOptions(w io.Writer, format string, options []campusdual.SignoffOption) error {
	if format == formatJson {
		return writeJson(w, options)
	}

	t := newTable(w)
	t.AppendHeader(examOptionHeader)
	for _, option := range options {
		t.AppendRow(examOptionRow(option.ExamOption, option.SignoffUntil))
	}
	t.Render()
	return nil
}

// writeOverview renders the three pages one after another, each table under its own title.
func writeOverview(w io.Writer, format string, overview campusdual.Overview) error {
	if format == formatJson {
		return writeJson(w, overview)
	}

	sections := []struct {
		title string
		write func() error
	}{
		{"Grades", func() error { return writeGrades(w, format, overview.Grades) }},
		{"Registration", func() error { return writeSignupOptions(w, format, overview.Signup) }},
		{"Withdrawal", func() error { return writeSignoffOptions(w, format, overview.Signoff) }},
	}
	for _, section := range sections {
		fmt.Fprintf(w, "\n%s\n", section.title)
		err := section.write()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeHistory(w io.Writer, location *time.Location, attempts []gradestore.Attempt) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Seen", "Module", "Attempt", "Grade", "Passed", "Announced"})
	for _, attempt := range attempts {
		t.AppendRow(table.Row{
			attempt.FirstSeen.In(location).Format(time.DateTime),
			attempt.Module,
			attempt.Name,
			attempt.Grade,
			passedSymbol(attempt.Passed),
			attempt.AnnouncedOn,
		})
	}
	t.Render()
}
