package campusdual

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGradeRowFields(t *testing.T) {
	table := parseTable(t, `<tr><td>Name</td><td>2,3</td><td><img src="/img/green.png"></td><td>  7</td><td>01.01.2024</td><td>02.01.2024</td><td>2. Versuch</td><td>WS</td></tr>`)
	fields := decodeGradeRow(table.Find("tr").First())

	require.Equal(t, "Name", textOr(fields.name, "x"))
	require.Equal(t, "2,3", textOr(fields.grade, "x"))
	require.Equal(t, True, passedFlag(fields.passed))
	require.Equal(t, 7, intOr(fields.creditPoints, -1))
	require.Equal(t, "01.01.2024", textOr(fields.assessedOn, "x"))
	require.Equal(t, "02.01.2024", textOr(fields.announcedOn, "x"))
	require.Equal(t, ptr("2. Versuch"), optionalText(fields.retake))
	require.Equal(t, "WS", textOr(fields.period, "x"))
}

func TestShortRowFields(t *testing.T) {
	table := parseTable(t, `<tr><td>Name</td></tr>`)
	fields := decodeGradeRow(table.Find("tr").First())

	require.Nil(t, fields.grade)
	require.Equal(t, "fallback", textOr(fields.period, "fallback"))
	require.Nil(t, optionalText(fields.retake))
	require.Equal(t, Unknown, passedFlag(fields.passed))
	require.Equal(t, 0, intOr(fields.creditPoints, 0))
}

func TestPassedFlag(t *testing.T) {
	table := []struct {
		markup   string
		expected Tristate
	}{
		{markup: `<td><img src="/images/green.png"></td>`, expected: True},
		{markup: `<td><img src="/images/red.png"></td>`, expected: False},
		{markup: `<td><img src=""></td>`, expected: False},
		{markup: `<td><img></td>`, expected: Unknown},
		{markup: `<td>bestanden</td>`, expected: Unknown},
		{markup: `<td><img src="/images/red.png"><img src="/images/green.png"></td>`, expected: False},
	}

	for _, test := range table {
		cell := parseTable(t, "<tr>"+test.markup+"</tr>").Find("td").Get(0)
		require.Equal(t, test.expected, passedFlag(cell), test.markup)
	}
}

func TestIntOr(t *testing.T) {
	table := []struct {
		markup   string
		expected int
	}{
		{markup: `<td>5</td>`, expected: 5},
		{markup: `<td> 10</td>`, expected: 10},
		{markup: `<td>10 </td>`, expected: -1},
		{markup: `<td>fünf</td>`, expected: -1},
		{markup: `<td></td>`, expected: -1},
	}

	for _, test := range table {
		cell := parseTable(t, "<tr>"+test.markup+"</tr>").Find("td").Get(0)
		require.Equal(t, test.expected, intOr(cell, -1), test.markup)
	}
}

func TestDecodeDetailText(t *testing.T) {
	table := []struct {
		name     string
		texts    []string
		ok       bool
		expected detailText
	}{
		{
			name: "empty",
			ok:   false,
		},
		{
			name:     "information only",
			texts:    []string{"  Anmeldung offen"},
			ok:       true,
			expected: detailText{information: "Anmeldung offen"},
		},
		{
			name:  "full layout",
			texts: []string{"Anmeldung offen, Prüfungstermin: ", "15.01.2025", " um ", "10:00", ", Raum A101", "anmelden"},
			ok:    true,
			expected: detailText{
				information: "Anmeldung offen",
				examDate:    ptr("15.01.2025"),
				examTime:    ptr("10:00"),
				examRoom:    ptr("Raum A101"),
			},
		},
		{
			name:  "room without separator",
			texts: []string{"Info", "15.01.2025", " ", "10:00", "Raum A101"},
			ok:    true,
			expected: detailText{
				information: "Info",
				examDate:    ptr("15.01.2025"),
				examTime:    ptr("10:00"),
				examRoom:    ptr("Raum A101"),
			},
		},
		{
			name:  "date without time",
			texts: []string{"Info, Prüfungstermin: ", "15.01.2025", " um "},
			ok:    true,
			expected: detailText{
				information: "Info",
				examDate:    ptr("15.01.2025"),
			},
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			detail, ok := decodeDetailText(test.texts)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, detail)
		})
	}
}
