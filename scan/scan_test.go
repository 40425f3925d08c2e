package scan_test

import (
	"testing"

	"github.com/SonoItalianoVero/refactored-lamp/scan"
)

func TestFindAmounts(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []scan.Match
	}{
		{
			name: "symbol left",
			line: "Totaal: € 5.000,00 incl. btw",
			want: []scan.Match{{Kind: scan.Amount, Start: 8, End: 20, Text: "€ 5.000,00"}},
		},
		{
			// The character class absorbs the whitespace before the number,
			// so the match (and later the bbox) starts at the space glyph.
			name: "symbol right",
			line: "Maandbedrag 1.200,00 € per maand",
			want: []scan.Match{{Kind: scan.Amount, Start: 11, End: 24, Text: " 1.200,00 €"}},
		},
		{
			name: "symbol left no space",
			line: "€750,00 administratie",
			want: []scan.Match{{Kind: scan.Amount, Start: 0, End: 9, Text: "€750,00"}},
		},
		{
			name: "space grouping",
			line: "bedrag 5 000,00 € totaal",
			want: []scan.Match{{Kind: scan.Amount, Start: 6, End: 19, Text: " 5 000,00 €"}},
		},
		{
			name: "two amounts on one line",
			line: "€ 100,00 en daarna 250,50 €",
			want: []scan.Match{
				{Kind: scan.Amount, Start: 0, End: 10, Text: "€ 100,00"},
				{Kind: scan.Amount, Start: 20, End: 31, Text: " 250,50 €"},
			},
		},
		{
			name: "no match",
			line: "geen bedragen hier",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scan.Find(tt.line)
			assertMatches(t, got, tt.want)
		})
	}
}

func TestFindDates(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []scan.Match
	}{
		{
			name: "dash date",
			line: "Datum: 01-01-2024",
			want: []scan.Match{{Kind: scan.Date, Start: 7, End: 17, Text: "01-01-2024"}},
		},
		{
			name: "dot date",
			line: "Getekend op 15.03.2024 te Amsterdam",
			want: []scan.Match{{Kind: scan.Date, Start: 12, End: 22, Text: "15.03.2024"}},
		},
		{
			name: "date not embedded in longer digits",
			line: "ref 001-01-20245",
			want: nil,
		},
		{
			name: "date and amount together",
			line: "Op 12-06-2024 ontvangen: € 2.500,00",
			want: []scan.Match{
				{Kind: scan.Date, Start: 3, End: 13, Text: "12-06-2024"},
				{Kind: scan.Amount, Start: 25, End: 37, Text: "€ 2.500,00"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scan.Find(tt.line)
			assertMatches(t, got, tt.want)
		})
	}
}

// The year heuristic drops amount candidates that contain "202" and are
// shorter than twelve characters. Dates are exempt.
func TestSuppression(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []scan.Match
	}{
		{
			name: "year-like amount dropped",
			line: "boekjaar € 2025,00 afgesloten",
			want: nil,
		},
		{
			name: "small amount with 202 dropped",
			line: "kosten € 202,00 eenmalig",
			want: nil,
		},
		{
			name: "grouped amount with 202 dropped under twelve chars",
			line: "restant 1.202,00 € open",
			want: nil,
		},
		{
			name: "long amount with 202 kept at twelve chars",
			line: "saldo € 123.202,00 credit",
			want: []scan.Match{{Kind: scan.Amount, Start: 6, End: 20, Text: "€ 123.202,00"}},
		},
		{
			name: "other decade not dropped",
			line: "premie € 2035,00 per jaar",
			want: []scan.Match{{Kind: scan.Amount, Start: 7, End: 18, Text: "€ 2035,00"}},
		},
		{
			name: "date with 202 kept",
			line: "vervaldatum 01-01-2024",
			want: []scan.Match{{Kind: scan.Date, Start: 12, End: 22, Text: "01-01-2024"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scan.Find(tt.line)
			assertMatches(t, got, tt.want)
		})
	}
}

// Spans claimed by an earlier pattern are not reconsidered by later ones.
func TestClaiming(t *testing.T) {
	// The symbol-left pattern claims "€ 1.500,00"; the symbol-right pattern
	// must not then match a sub-span ending at the second euro sign.
	line := "€ 1.500,00 € extra"
	got := scan.Find(line)
	if len(got) != 1 {
		t.Fatalf("Find(%q) returned %d matches, want 1: %+v", line, len(got), got)
	}
	if got[0].Text != "€ 1.500,00" {
		t.Errorf("claimed match = %q, want %q", got[0].Text, "€ 1.500,00")
	}
}

func assertMatches(t *testing.T, got, want []scan.Match) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d matches %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
