package campusdual

import (
	"io"

	"campusdual-backend/internal/components/assert"
	"campusdual-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_parse  = "extractor.parse"
	report_extractor_table  = "extractor.table"
	report_extractor_row_id = "extractor.row-id"
)

// Extractor turns portal pages into records.
//
// Its methods never fail: markup the portal renders inconsistently is resolved with
// defaults or by skipping the affected row and reported as a telemetry warning.
// An Extractor holds no mutable state and is safe for concurrent use.
type Extractor struct {
	tel telemetry.API
}

// NewExtractor creates an Extractor reporting through tel.
func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel, "tel")
	return Extractor{tel: telemetry.NewScopedAPI("campusdual_extractor", tel)}
}

// findTable parses the document and returns the first element matching selector.
func (e Extractor) findTable(document io.Reader, selector string) (*goquery.Selection, bool) {
	doc, err := goquery.NewDocumentFromReader(document)
	if err != nil {
		e.tel.ReportBroken(report_extractor_parse, err, selector)
		return nil, false
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		e.tel.ReportWarning(report_extractor_table, selector)
		return nil, false
	}
	return table, true
}
