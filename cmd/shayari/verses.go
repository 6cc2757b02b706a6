package main

import (
	"io"
	"strings"

	"github.com/rizwanabrish101/shayari/internal/domain"
)

func verseRows(verses []*domain.VerseWithPoet) [][]string {
	rows := make([][]string, 0, len(verses))
	for _, v := range verses {
		poet, category := "", ""
		if v.Poet != nil {
			poet = v.Poet.Name
		}
		if v.Category != nil {
			category = v.Category.Name
		}
		rows = append(rows, []string{v.ID, poet, category, strings.Join(v.Lines(), " / ")})
	}
	return rows
}

func writeVerses(out io.Writer, verses []*domain.VerseWithPoet, empty string) {
	if len(verses) == 0 {
		io.WriteString(out, empty+"\n")
		return
	}
	table := renderTable([]string{"ID", "Poet", "Category", "Verse"}, verseRows(verses), []columnAlignment{alignRight}, shouldColorize(out))
	io.WriteString(out, table+"\n")
}
