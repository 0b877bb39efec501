package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseCell(t *testing.T, markup string) *html.Node {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<table><tbody><tr>" + markup + "</tr></tbody></table>",
	))
	require.NoError(t, err)
	cell := doc.Find("td").First()
	require.Equal(t, 1, cell.Length())
	return cell.Nodes[0]
}

func TestTextNodes(t *testing.T) {
	cell := parseCell(t, `<td>Anmeldung möglich, Prüfungstermin: <b>15.01.2025</b> um <b>10:00</b><!-- c -->, Raum 101</td>`)

	require.Equal(t, []string{
		"Anmeldung möglich, Prüfungstermin: ",
		"15.01.2025",
		" um ",
		"10:00",
		", Raum 101",
	}, TextNodes(cell))
	require.Equal(t, "Anmeldung möglich, Prüfungstermin: 15.01.2025 um 10:00, Raum 101", GetText(cell))
}

func TestFirstText(t *testing.T) {
	table := []struct {
		markup   string
		expected string
		ok       bool
	}{
		{markup: `<td>Mathematik I</td>`, expected: "Mathematik I", ok: true},
		{markup: `<td><img src="/images/green.png"/></td>`, ok: false},
		{markup: `<td><span><i>1,7</i></span> (2. Versuch)</td>`, expected: "1,7", ok: true},
		{markup: `<td>  </td>`, expected: "  ", ok: true},
	}

	for _, row := range table {
		text, ok := FirstText(parseCell(t, row.markup))
		require.Equal(t, row.ok, ok, row.markup)
		require.Equal(t, row.expected, text, row.markup)
	}
}

func TestNilNode(t *testing.T) {
	text, ok := FirstText(nil)
	require.False(t, ok)
	require.Empty(t, text)
	require.Empty(t, TextNodes(nil))
	require.Empty(t, GetText(nil))
}
