package campusdual

import (
	"strconv"
	"strings"
	"unicode"

	"campusdual-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Defaults for cells that are missing or have no text.
const (
	defaultModuleName      = "Kein Name"
	defaultSubgradeName    = "kein Name"
	defaultPartialExamName = "Ohne Name"
	defaultGrade           = "?"
	defaultPeriod          = "nicht vorhanden"
	defaultDate            = "01.01.1970"
	defaultCreditPoints    = 0
)

// passedIconMarker is contained in the src of the icon shown for passed assessments.
const passedIconMarker = "green.png"

// gradeRow is the cell layout shared by module, attempt and partial exam rows of the grades table:
//
//	0 name | 1 grade | 2 passed icon | 3 credit points | 4 beurteilung | 5 bekanntgabe | 6 wiederholung | 7 akad. period
type gradeRow struct {
	name         *html.Node
	grade        *html.Node
	passed       *html.Node
	creditPoints *html.Node
	assessedOn   *html.Node
	announcedOn  *html.Node
	retake       *html.Node
	period       *html.Node
}

func decodeGradeRow(row *goquery.Selection) gradeRow {
	cells := row.Find("td").Nodes
	return gradeRow{
		name:         cell(cells, 0),
		grade:        cell(cells, 1),
		passed:       cell(cells, 2),
		creditPoints: cell(cells, 3),
		assessedOn:   cell(cells, 4),
		announcedOn:  cell(cells, 5),
		retake:       cell(cells, 6),
		period:       cell(cells, 7),
	}
}

// examRow is the cell layout of the top-level rows of the exam tables:
//
//	0 name | 1 verfahren | 2 pruefart
type examRow struct {
	name      *html.Node
	procedure *html.Node
	examType  *html.Node
}

func decodeExamRow(row *goquery.Selection) examRow {
	cells := row.Find("td").Nodes
	return examRow{
		name:      cell(cells, 0),
		procedure: cell(cells, 1),
		examType:  cell(cells, 2),
	}
}

// cell returns the i-th cell or nil if the row is too short.
func cell(cells []*html.Node, i int) *html.Node {
	if i < 0 || i >= len(cells) {
		return nil
	}
	return cells[i]
}

// textOr returns the first text node of the cell or fallback.
func textOr(cell *html.Node, fallback string) string {
	text, ok := htmlutil.FirstText(cell)
	if !ok {
		return fallback
	}
	return text
}

// optionalText returns the first text node of the cell, nil if there is none.
func optionalText(cell *html.Node) *string {
	text, ok := htmlutil.FirstText(cell)
	if !ok {
		return nil
	}
	return &text
}

// passedFlag inspects the first icon of the cell, a cell without an icon source is Unknown.
func passedFlag(cell *html.Node) Tristate {
	if cell == nil {
		return Unknown
	}
	src, ok := goquery.NewDocumentFromNode(cell).Find("img").First().Attr("src")
	if !ok {
		return Unknown
	}
	return tristateOf(strings.Contains(src, passedIconMarker))
}

// intOr parses the first text node of the cell after trimming leading whitespace.
func intOr(cell *html.Node, fallback int) int {
	text, ok := htmlutil.FirstText(cell)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimLeftFunc(text, unicode.IsSpace))
	if err != nil {
		return fallback
	}
	return value
}

// examDateMarker ends the information text of an option that has an exam date.
const examDateMarker = ", Prüfungstermin: "

// examRoomMarker precedes the room in the detail row of an exam option.
const examRoomMarker = ", "

// detailText is the text node layout of the main detail row of an exam option,
// counted over all text nodes of the row in document order:
//
//	0 information ", Prüfungstermin: " | 1 exam date | 2 separator | 3 exam time | 4 ", " exam room
type detailText struct {
	information string
	examDate    *string
	examTime    *string
	examRoom    *string
}

// decodeDetailText reads the layout from the text nodes of a detail row, ok is false
// if the row has no text at all.
func decodeDetailText(texts []string) (detail detailText, ok bool) {
	if len(texts) == 0 {
		return detailText{}, false
	}

	information := strings.TrimLeftFunc(texts[0], unicode.IsSpace)
	detail.information = strings.TrimSuffix(information, examDateMarker)
	detail.examDate = textSlot(texts, 1)
	detail.examTime = textSlot(texts, 3)
	if room := textSlot(texts, 4); room != nil {
		trimmed := strings.TrimPrefix(*room, examRoomMarker)
		detail.examRoom = &trimmed
	}

	return detail, true
}

func textSlot(texts []string, i int) *string {
	if i >= len(texts) {
		return nil
	}
	text := texts[i]
	return &text
}
