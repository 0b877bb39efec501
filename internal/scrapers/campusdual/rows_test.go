package campusdual

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseTable(t *testing.T, rows string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<table><tbody>" + rows + "</tbody></table>",
	))
	require.NoError(t, err)
	return doc.Find("tbody").First()
}

func rowTexts(rows []*goquery.Selection) []string {
	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Text()
	}
	return texts
}

func TestRowIndex(t *testing.T) {
	table := parseTable(t, ``+
		`<tr id="node-1" class="child-of-node-0 level-0"><td>a</td></tr>`+
		`<tr id="node-2" class="level-1 child-of-node-1"><td>a.1</td></tr>`+
		`<tr id="node-3" class="child-of-node-0"><td>b</td></tr>`+
		`<tr class="child-of-node-1 child-of-node-1"><td>a.2</td></tr>`+
		`<tr class="child-of-node-10"><td>x.1</td></tr>`+
		`<tr class="child-of-node-1000"><td>p</td></tr>`+
		`<tr class="child-of-"><td>empty</td></tr>`+
		`<tr><td>unclassed</td></tr>`,
	)
	index := newRowIndex(table)

	require.Equal(t, []string{"a", "b"}, rowTexts(index.topLevel()))
	require.Equal(t, []string{"a.1", "a.2"}, rowTexts(index.childrenOf("node-1")))
	require.Equal(t, []string{"x.1"}, rowTexts(index.childrenOf("node-10")))
	require.Equal(t, []string{"p"}, rowTexts(index.partialExams()))
	require.Empty(t, index.childrenOf("node-3"))
	require.Empty(t, index.childrenOf(""))
}

func TestRowId(t *testing.T) {
	table := parseTable(t, ``+
		`<tr id="node-7"><td></td></tr>`+
		`<tr id=""><td></td></tr>`+
		`<tr><td></td></tr>`,
	)
	rows := table.Find("tr")

	id, ok := rowId(rows.Eq(0))
	require.True(t, ok)
	require.Equal(t, "node-7", id)

	_, ok = rowId(rows.Eq(1))
	require.False(t, ok)

	_, ok = rowId(rows.Eq(2))
	require.False(t, ok)
}
