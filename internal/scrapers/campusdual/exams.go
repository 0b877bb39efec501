package campusdual

import (
	"io"

	"campusdual-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_exams_detail_row = "exams.detail-row"
	report_exams_no_text    = "exams.detail-text"
	report_exams_count      = "exams.count"
)

const (
	registrationMetadataSelector = "td > a.booking"
	placeholderInformation       = "Daten konnten nicht extrahiert werden"
)

// examFlow is what differs between the sign-up and sign-off pages.
type examFlow struct {
	name             string
	tableSelector    string
	procedureDefault string
	deadline         func(warning string) *string
}

var (
	signupFlow = examFlow{
		name:             "signup",
		tableSelector:    "#expproc tbody",
		procedureDefault: "",
		deadline:         signupDeadline,
	}
	signoffFlow = examFlow{
		name:             "signoff",
		tableSelector:    "#exopen tbody",
		procedureDefault: defaultModuleName,
		deadline:         signoffDeadline,
	}
)

type extractedOption struct {
	option   ExamOption
	deadline *string
}

// SignupOptions extracts the exams offered for registration, in document order.
func (e Extractor) SignupOptions(document io.Reader) []SignupOption {
	extracted := e.examOptions(document, signupFlow)
	options := make([]SignupOption, len(extracted))
	for i, o := range extracted {
		options[i] = SignupOption{ExamOption: o.option, SignupUntil: o.deadline}
	}
	return options
}

// SignoffOptions extracts the registered exams that can be withdrawn from, in document order.
func (e Extractor) SignoffOptions(document io.Reader) []SignoffOption {
	extracted := e.examOptions(document, signoffFlow)
	options := make([]SignoffOption, len(extracted))
	for i, o := range extracted {
		options[i] = SignoffOption{ExamOption: o.option, SignoffUntil: o.deadline}
	}
	return options
}

// examOptions walks the top-level rows of an exam table. The first child row of an option
// holds its details, the second one (if any) a warning message.
func (e Extractor) examOptions(document io.Reader, flow examFlow) []extractedOption {
	options := []extractedOption{}

	table, ok := e.findTable(document, flow.tableSelector)
	if !ok {
		return options
	}
	rows := newRowIndex(table)

	for _, row := range rows.topLevel() {
		id, ok := rowId(row)
		if !ok {
			e.tel.ReportWarning(report_extractor_row_id, flow.tableSelector)
			continue
		}

		details := rows.childrenOf(id)
		if len(details) == 0 {
			e.tel.ReportWarning(report_exams_detail_row, flow.name, id)
			continue
		}

		option, complete := decodeExamOption(row, details, flow)
		if !complete {
			e.tel.ReportWarning(report_exams_no_text, flow.name, id)
		}
		options = append(options, option)
	}

	e.tel.ReportCount(report_exams_count, int64(len(options)))
	return options
}

// decodeExamOption builds an option from its row and detail rows, complete is false if
// the main detail row has no text and the option only carries placeholder information.
func decodeExamOption(row *goquery.Selection, details []*goquery.Selection, flow examFlow) (option extractedOption, complete bool) {
	fields := decodeExamRow(row)
	exam := ExamOption{
		Name:      textOr(fields.name, defaultModuleName),
		Procedure: textOr(fields.procedure, flow.procedureDefault),
		ExamType:  textOr(fields.examType, ""),
	}

	main := details[0]
	src, _ := main.Find("img").First().Attr("src")
	exam.Status = ClassifyStatus(src)

	detail, ok := decodeDetailText(htmlutil.TextNodes(main.Get(0)))
	if !ok {
		exam.Information = placeholderInformation
		return extractedOption{option: exam}, false
	}
	exam.Information = detail.information
	exam.ExamDate = detail.examDate
	exam.ExamTime = detail.examTime
	exam.ExamRoom = detail.examRoom
	exam.Metadata = registrationMetadata(main)

	var deadline *string
	if len(details) > 1 {
		warning := normalizeWarning(htmlutil.GetText(details[1].Get(0)))
		exam.WarningMessage = &warning
		deadline = flow.deadline(warning)
	}

	return extractedOption{option: exam, deadline: deadline}, true
}

// registrationMetadata reads the booking identifiers of an option, all of them or none.
func registrationMetadata(row *goquery.Selection) *RegistrationMetadata {
	anchor := row.Find(registrationMetadataSelector).First()
	attrs := [4]string{}
	for i, name := range []string{"data-evob_objid", "data-peryr", "data-perid", "data-offerno"} {
		value, ok := anchor.Attr(name)
		if !ok {
			return nil
		}
		attrs[i] = value
	}
	return &RegistrationMetadata{
		Assessment: attrs[0],
		Peryr:      attrs[1],
		Perid:      attrs[2],
		Offerno:    attrs[3],
	}
}
