package campusdual

import (
	"io"
	"slices"
	"strings"
	"time"
	"unicode"

	"campusdual-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_grades_module_attempts = "grades.module-attempts"
	report_grades_count           = "grades.count"
)

const (
	gradesTableSelector   = "#acwork tbody"
	gradeMetadataSelector = "td > div#mscore > a"
)

// Grades extracts the module grades of the grades page, newest announcement first.
//
// Every module row yields one Grade holding its attempt rows, every partial examination
// row yields a Grade with that row as its only attempt. A document without the grades
// table yields an empty list.
func (e Extractor) Grades(document io.Reader) []Grade {
	grades := []Grade{}

	table, ok := e.findTable(document, gradesTableSelector)
	if !ok {
		return grades
	}
	rows := newRowIndex(table)

	for _, row := range rows.topLevel() {
		id, ok := rowId(row)
		if !ok {
			e.tel.ReportWarning(report_extractor_row_id, gradesTableSelector)
			continue
		}

		attempts := rows.childrenOf(id)
		if len(attempts) == 0 {
			e.tel.ReportWarning(report_grades_module_attempts, id)
			continue
		}

		grade := decodeModule(row)
		grade.Subgrades = make([]Subgrade, len(attempts))
		for i, attempt := range attempts {
			grade.Subgrades[i] = decodeSubgrade(attempt)
		}
		grades = append(grades, grade)
	}

	for _, row := range rows.partialExams() {
		grades = append(grades, decodePartialExam(row))
	}

	sortByNewestAnnouncement(grades)
	e.tel.ReportCount(report_grades_count, int64(len(grades)))

	return grades
}

func decodeModule(row *goquery.Selection) Grade {
	fields := decodeGradeRow(row)
	return Grade{
		Name:         textOr(fields.name, defaultModuleName),
		Grade:        textOr(fields.grade, defaultGrade),
		TotalPassed:  passedFlag(fields.passed),
		CreditPoints: intOr(fields.creditPoints, defaultCreditPoints),
		Period:       textOr(fields.period, defaultPeriod),
	}
}

func decodeSubgrade(row *goquery.Selection) Subgrade {
	fields := decodeGradeRow(row)

	name := defaultSubgradeName
	if text, ok := htmlutil.FirstText(fields.name); ok {
		name = strings.TrimLeftFunc(text, unicode.IsSpace)
	}

	return Subgrade{
		Name:        name,
		Grade:       textOr(fields.grade, defaultGrade),
		Passed:      passedFlag(fields.passed),
		AssessedOn:  textOr(fields.assessedOn, defaultDate),
		AnnouncedOn: textOr(fields.announcedOn, defaultDate),
		Retake:      optionalText(fields.retake),
		Period:      textOr(fields.period, defaultPeriod),
		Metadata:    subgradeMetadata(row),
	}
}

// subgradeMetadata reads the portal's identifiers of an attempt, all of them or none.
func subgradeMetadata(row *goquery.Selection) *SubgradeMetadata {
	anchor := row.Find(gradeMetadataSelector).First()
	module, ok := anchor.Attr("data-module")
	if !ok {
		return nil
	}
	peryr, ok := anchor.Attr("data-peryr")
	if !ok {
		return nil
	}
	perid, ok := anchor.Attr("data-perid")
	if !ok {
		return nil
	}
	return &SubgradeMetadata{
		Module: module,
		Peryr:  peryr,
		Perid:  perid,
	}
}

// decodePartialExam turns a standalone partial examination row into a single attempt Grade.
func decodePartialExam(row *goquery.Selection) Grade {
	fields := decodeGradeRow(row)

	name := defaultPartialExamName
	if text, ok := htmlutil.FirstText(fields.name); ok {
		name = strings.TrimSpace(text)
	}
	grade := textOr(fields.grade, defaultGrade)
	passed := passedFlag(fields.passed)
	period := textOr(fields.period, defaultPeriod)

	return Grade{
		Name:         name,
		Grade:        grade,
		TotalPassed:  passed,
		CreditPoints: 0,
		Period:       period,
		Subgrades: []Subgrade{{
			Name:        name,
			Grade:       grade,
			Passed:      passed,
			AssessedOn:  textOr(fields.assessedOn, defaultDate),
			AnnouncedOn: textOr(fields.announcedOn, defaultDate),
			Period:      period,
		}},
	}
}

// NewestAnnouncement returns the latest announcement date of the grade's attempts,
// EarliestDate if none of them has a parsable one.
func NewestAnnouncement(grade Grade) time.Time {
	newest := EarliestDate
	for _, subgrade := range grade.Subgrades {
		date := ParseDate(subgrade.AnnouncedOn)
		if date.After(newest) {
			newest = date
		}
	}
	return newest
}

// sortByNewestAnnouncement orders grades by their newest announcement, descending.
// Grades announced on the same day keep the order they were found in.
func sortByNewestAnnouncement(grades []Grade) {
	keyed := make([]announcedGrade, len(grades))
	for i, grade := range grades {
		keyed[i] = announcedGrade{grade: grade, newest: NewestAnnouncement(grade)}
	}

	slices.SortStableFunc(keyed, func(a, b announcedGrade) int {
		return b.newest.Compare(a.newest)
	})

	for i := range keyed {
		grades[i] = keyed[i].grade
	}
}

type announcedGrade struct {
	grade  Grade
	newest time.Time
}
