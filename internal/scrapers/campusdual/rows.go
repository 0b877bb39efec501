package campusdual

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The portal renders its tree tables as flat rows, a row references its parent
// with the class token "child-of-<parent id>".
const (
	childClassPrefix = "child-of-"
	topLevelParent   = "node-0"
	partialExamGroup = "node-1000"
)

// rowIndex maps every parent reference found in a table to the rows carrying it,
// in document order. It is built in a single pass so lookups never re-scan the table.
type rowIndex struct {
	children map[string][]*goquery.Selection
}

func newRowIndex(table *goquery.Selection) rowIndex {
	index := rowIndex{children: map[string][]*goquery.Selection{}}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		class, ok := row.Attr("class")
		if !ok {
			return
		}
		seen := map[string]bool{}
		for _, token := range strings.Fields(class) {
			parent, ok := strings.CutPrefix(token, childClassPrefix)
			if !ok || parent == "" || seen[parent] {
				continue
			}
			seen[parent] = true
			index.children[parent] = append(index.children[parent], row)
		}
	})
	return index
}

// topLevel returns the rows that have no parent row.
func (r rowIndex) topLevel() []*goquery.Selection {
	return r.children[topLevelParent]
}

// partialExams returns the standalone partial examination rows of the grades table.
func (r rowIndex) partialExams() []*goquery.Selection {
	return r.children[partialExamGroup]
}

// childrenOf returns the rows whose parent is the row with the given id.
func (r rowIndex) childrenOf(id string) []*goquery.Selection {
	return r.children[id]
}

// rowId returns the id attribute of a row, ok is false if it is missing or empty.
func rowId(row *goquery.Selection) (id string, ok bool) {
	id, ok = row.Attr("id")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
