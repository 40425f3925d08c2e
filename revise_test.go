package revise_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	gofpdf "github.com/jung-kurt/gofpdf"

	revise "github.com/SonoItalianoVero/refactored-lamp"
	"github.com/SonoItalianoVero/refactored-lamp/overlay"
	"github.com/SonoItalianoVero/refactored-lamp/reader"
	"github.com/SonoItalianoVero/refactored-lamp/scan"
)

// docPDF builds a point-unit A4 document with Helvetica 12 lines starting
// at (72, 720) and stepping down the page.
func docPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	for i, s := range lines {
		pdf.Text(72, 720+float64(i)*24, tr(s))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	return buf.Bytes()
}

// fixedClock pins both replacement dates and the output timestamp.
func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
}

func testEngine(t *testing.T, opts ...revise.Option) *revise.Engine {
	t.Helper()
	opts = append([]revise.Option{
		revise.WithClock(fixedClock()),
		revise.WithLocation(time.UTC),
		revise.WithAnchorRatio(0.265),
	}, opts...)
	eng, err := revise.New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func outputPage(t *testing.T, data []byte, n int) *reader.Page {
	t.Helper()
	doc, err := reader.ReadBytes(data)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	page, err := doc.Page(n)
	if err != nil {
		t.Fatalf("page %d: %v", n, err)
	}
	return page
}

func outputContent(t *testing.T, data []byte, n int) string {
	t.Helper()
	content, err := outputPage(t, data, n).ContentStream()
	if err != nil {
		t.Fatalf("content %d: %v", n, err)
	}
	return string(content)
}

func within(a, b, tol float64) bool {
	d := a - b
	return d >= -tol && d <= tol
}

func TestApplyReplacesAmountGeometry(t *testing.T) {
	src := docPDF(t, "Totaal: € 5.000,00")
	eng := testEngine(t)

	out, err := eng.Apply(context.Background(), src, 7500.50)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	content := outputContent(t, out, 1)
	if !strings.Contains(content, "(\x80 7.500,50) Tj") {
		t.Error("replacement amount not drawn")
	}
	if !strings.Contains(content, "12.00 Tf") {
		t.Error("replacement does not reuse the 12pt source size")
	}

	// "Totaal: " is 3335/1000 em wide, so the amount starts at
	// 72 + 40.02 = 112.02 and spans 4726/1000 em = 56.712 points. The
	// baseline sits at 841.89 - 720; Helvetica ascends 0.718 em and
	// descends 0.207 em; padding at 12pt is 2.16.
	rect := regexp.MustCompile(`(-?[0-9.]+) (-?[0-9.]+) (-?[0-9.]+) (-?[0-9.]+) re f`).FindStringSubmatch(content)
	if rect == nil {
		t.Fatal("no blank rectangle in page content")
	}
	got := make([]float64, 4)
	for i := range got {
		v, err := strconv.ParseFloat(rect[i+1], 64)
		if err != nil {
			t.Fatal(err)
		}
		got[i] = v
	}
	want := []float64{109.86, 132.666, 61.032, -15.42}
	for i := range want {
		if !within(got[i], want[i], 0.05) {
			t.Errorf("blank rect[%d] = %g, want %g", i, got[i], want[i])
		}
	}

	td := regexp.MustCompile(`BT (-?[0-9.]+) (-?[0-9.]+) Td`).FindStringSubmatch(content)
	if td == nil {
		t.Fatal("no text anchor in page content")
	}
	x, _ := strconv.ParseFloat(td[1], 64)
	y, _ := strconv.ParseFloat(td[2], 64)
	if !within(x, 112.02, 0.05) {
		t.Errorf("anchor x = %g, want 112.02", x)
	}
	// 119.406 + 11.1*0.265
	if !within(y, 122.3475, 0.05) {
		t.Errorf("anchor y = %g, want 122.3475", y)
	}
}

func TestApplyPreservesSymbolPlacement(t *testing.T) {
	src := docPDF(t,
		"Aanbetaling: € 5.000,00",
		"Restant: 1.200,00 €",
	)
	out, err := testEngine(t).Apply(context.Background(), src, 980)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	content := outputContent(t, out, 1)
	if !strings.Contains(content, "(\x80 980,00) Tj") {
		t.Error("symbol-left replacement missing")
	}
	if !strings.Contains(content, "(980,00 \x80) Tj") {
		t.Error("symbol-right replacement missing")
	}
}

func TestApplyReplacesDates(t *testing.T) {
	src := docPDF(t,
		"Datum: 01-01-2024",
		"Geldig tot 31.12.2023",
	)
	out, err := testEngine(t).Apply(context.Background(), src, 1)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	content := outputContent(t, out, 1)
	if n := strings.Count(content, "(01-03-2024) Tj"); n != 2 {
		t.Errorf("got %d date replacements, want 2", n)
	}
}

func TestApplyNoMatchesKeepsDocument(t *testing.T) {
	src := docPDF(t, "Geen bedragen of datums hier")
	out, err := testEngine(t).Apply(context.Background(), src, 999)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	srcPage := outputPage(t, src, 1)
	outPage := outputPage(t, out, 1)
	if !within(outPage.MediaBox.Width(), srcPage.MediaBox.Width(), 0.01) ||
		!within(outPage.MediaBox.Height(), srcPage.MediaBox.Height(), 0.01) {
		t.Errorf("page size changed: %g x %g", outPage.MediaBox.Width(), outPage.MediaBox.Height())
	}

	srcText, err := srcPage.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	outText, err := outPage.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if outText != srcText {
		t.Errorf("text changed: %q vs %q", outText, srcText)
	}
}

func TestApplyPreservesPageGeometry(t *testing.T) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 12)
	sizes := [][2]float64{{595.28, 841.89}, {612, 792}, {420.94, 595.28}}
	for i, s := range sizes {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: s[0], Ht: s[1]})
		pdf.Text(72, 300, tr(fmt.Sprintf("Pagina %d: € 1.000,00", i+1)))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	out, err := testEngine(t).Apply(context.Background(), buf.Bytes(), 250)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	doc, err := reader.ReadBytes(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if doc.NumPages() != len(sizes) {
		t.Fatalf("output has %d pages, want %d", doc.NumPages(), len(sizes))
	}
	for i, s := range sizes {
		page, err := doc.Page(i + 1)
		if err != nil {
			t.Fatal(err)
		}
		if !within(page.MediaBox.Width(), s[0], 0.01) || !within(page.MediaBox.Height(), s[1], 0.01) {
			t.Errorf("page %d size = %g x %g, want %g x %g",
				i+1, page.MediaBox.Width(), page.MediaBox.Height(), s[0], s[1])
		}
		if !strings.Contains(outputContent(t, out, i+1), "(\x80 250,00) Tj") {
			t.Errorf("page %d missing its replacement", i+1)
		}
	}
}

func TestApplyDeterministicAcrossWorkers(t *testing.T) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < 4; i++ {
		pdf.AddPage()
		pdf.Text(72, 720, tr(fmt.Sprintf("Factuur %d: € %d.500,00", i+1, i+1)))
		pdf.Text(72, 744, "Datum: 15-01-2024")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	src := buf.Bytes()

	serial := testEngine(t, revise.WithWorkers(1))
	parallel := testEngine(t, revise.WithWorkers(4))

	first, err := serial.Apply(context.Background(), src, 7500.50)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for run := 0; run < 3; run++ {
		got, err := parallel.Apply(context.Background(), src, 7500.50)
		if err != nil {
			t.Fatalf("Apply run %d: %v", run, err)
		}
		if !bytes.Equal(got, first) {
			t.Fatalf("run %d: output differs from single-worker bytes", run)
		}
	}
}

func TestApplyCancelled(t *testing.T) {
	src := docPDF(t, "Totaal: € 5.000,00")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testEngine(t).Apply(ctx, src, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	var re *revise.Error
	if !errors.As(err, &re) || re.Op != "analyze" {
		t.Errorf("err = %#v, want stage analyze", err)
	}
}

func TestApplyRejectsGarbage(t *testing.T) {
	_, err := testEngine(t).Apply(context.Background(), []byte("not a pdf at all"), 1)
	if !errors.Is(err, revise.ErrBadDocument) {
		t.Fatalf("err = %v, want ErrBadDocument", err)
	}
	var re *revise.Error
	if !errors.As(err, &re) || re.Op != "parse" {
		t.Errorf("err = %#v, want stage parse", err)
	}
}

func TestApplyRejectsZeroPageDocument(t *testing.T) {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, body := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefOff := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOff)

	_, err := testEngine(t).Apply(context.Background(), buf.Bytes(), 1)
	if !errors.Is(err, revise.ErrBadDocument) {
		t.Fatalf("err = %v, want ErrBadDocument", err)
	}
}

func TestApplyRejectsEncryptedButPlanWorks(t *testing.T) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(72, 720, tr("Totaal: € 9,99"))
	pdf.SetProtection(0, "", "owner456")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	eng := testEngine(t)
	_, err := eng.Apply(context.Background(), buf.Bytes(), 1)
	if !errors.Is(err, revise.ErrEncrypted) {
		t.Fatalf("Apply err = %v, want ErrEncrypted", err)
	}

	// Analysis only needs the decrypted text, so planning still works.
	rep, err := eng.Plan(context.Background(), buf.Bytes(), 1)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if rep.TotalHits() != 1 {
		t.Errorf("plan found %d hits, want 1", rep.TotalHits())
	}
}

func TestPlanReportsHits(t *testing.T) {
	src := docPDF(t,
		"Totaal: € 5.000,00",
		"Datum: 01-01-2024",
	)
	rep, err := testEngine(t).Plan(context.Background(), src, 7500.50)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if rep.TotalHits() != 2 || len(rep.Pages) != 1 {
		t.Fatalf("report = %d hits on %d pages", rep.TotalHits(), len(rep.Pages))
	}
	pr := rep.Pages[0]
	if pr.Page != 1 || !within(pr.Width, 595.28, 0.01) || !within(pr.Height, 841.89, 0.01) {
		t.Errorf("page report = %d %g x %g", pr.Page, pr.Width, pr.Height)
	}

	amount := pr.Hits[0]
	if amount.Kind != scan.Amount || amount.SourceText != "€ 5.000,00" {
		t.Fatalf("hit 0 = %s %q", amount.Kind, amount.SourceText)
	}
	if amount.Replacement != "€ 7.500,50" {
		t.Errorf("amount replacement = %q", amount.Replacement)
	}
	if amount.FontFamily != "Helvetica" || amount.FontStyle != overlay.Regular {
		t.Errorf("amount font = %s %s", amount.FontFamily, amount.FontStyle)
	}
	if !within(amount.FontSize, 12, 0.01) {
		t.Errorf("amount size = %g", amount.FontSize)
	}
	if !within(amount.BBox.X0, 112.02, 0.05) {
		t.Errorf("amount bbox x0 = %g, want 112.02", amount.BBox.X0)
	}
	if !within(amount.AnchorRatio, 0.265, 1e-9) {
		t.Errorf("amount anchor ratio = %g", amount.AnchorRatio)
	}

	date := pr.Hits[1]
	if date.Kind != scan.Date || date.SourceText != "01-01-2024" {
		t.Fatalf("hit 1 = %s %q", date.Kind, date.SourceText)
	}
	if date.Replacement != "01-03-2024" {
		t.Errorf("date replacement = %q", date.Replacement)
	}
}

func TestPlanAppliesSuppressionRule(t *testing.T) {
	src := docPDF(t,
		"Te betalen: 1.202,00 €",
		"Vrij: € 15.000,00",
		"Groot: 1.202.500,00 €",
		"Datum: 15-01-2024",
	)
	rep, err := testEngine(t).Plan(context.Background(), src, 1)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	// The short amount contains "202" and is discarded as a year
	// fragment; the long one is 12 runes or more and survives.
	if rep.TotalHits() != 3 {
		t.Errorf("got %d hits, want 3", rep.TotalHits())
	}
	for _, h := range rep.Pages[0].Hits {
		if strings.Contains(h.SourceText, "1.202,00") {
			t.Errorf("suppressed amount reported: %q", h.SourceText)
		}
	}
	var kept, date bool
	for _, h := range rep.Pages[0].Hits {
		if strings.Contains(h.SourceText, "1.202.500,00") {
			kept = true
		}
		if h.Kind == scan.Date {
			date = true
		}
	}
	if !kept {
		t.Error("long grouped amount missing")
	}
	if !date {
		t.Error("date hit missing")
	}
}

func TestAnchorRatioFromEnvironment(t *testing.T) {
	src := docPDF(t, "Totaal: € 5.000,00")

	ratioFor := func(t *testing.T, opts ...revise.Option) float64 {
		t.Helper()
		opts = append([]revise.Option{
			revise.WithClock(fixedClock()),
			revise.WithLocation(time.UTC),
		}, opts...)
		eng, err := revise.New(opts...)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		rep, err := eng.Plan(context.Background(), src, 1)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if rep.TotalHits() == 0 {
			t.Fatal("no hits")
		}
		return rep.Pages[0].Hits[0].AnchorRatio
	}

	t.Setenv("REVISE_ANCHOR_RATIO", "0.5")
	if got := ratioFor(t); !within(got, 0.5, 1e-9) {
		t.Errorf("env 0.5: ratio = %g", got)
	}

	t.Setenv("REVISE_ANCHOR_RATIO", "abc")
	if got := ratioFor(t); !within(got, 0.265, 1e-9) {
		t.Errorf("invalid env: ratio = %g, want default", got)
	}

	t.Setenv("REVISE_ANCHOR_RATIO", "1.5")
	if got := ratioFor(t); !within(got, 0.265, 1e-9) {
		t.Errorf("out-of-range env: ratio = %g, want default", got)
	}

	t.Setenv("REVISE_ANCHOR_RATIO", "0.9")
	if got := ratioFor(t, revise.WithAnchorRatio(0.4)); !within(got, 0.4, 1e-9) {
		t.Errorf("option should win over env: ratio = %g", got)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	cases := []struct {
		name string
		opt  revise.Option
	}{
		{"ratio above one", revise.WithAnchorRatio(1.5)},
		{"negative ratio", revise.WithAnchorRatio(-0.1)},
		{"zero workers", revise.WithWorkers(0)},
		{"nil clock", revise.WithClock(nil)},
	}
	for _, tc := range cases {
		eng, err := revise.New(tc.opt)
		if !errors.Is(err, revise.ErrInvalidParam) {
			t.Errorf("%s: err = %v, want ErrInvalidParam", tc.name, err)
		}
		if eng != nil {
			t.Errorf("%s: engine returned alongside error", tc.name)
		}
	}

	if _, err := revise.New(); err != nil {
		t.Errorf("default options rejected: %v", err)
	}
}

func TestApplyTwiceStable(t *testing.T) {
	src := docPDF(t, "Totaal: € 5.000,00", "Datum: 01-01-2024")
	eng := testEngine(t)

	once, err := eng.Apply(context.Background(), src, 7500.50)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	twice, err := eng.Apply(context.Background(), once, 7500.50)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	doc, err := reader.ReadBytes(twice)
	if err != nil {
		t.Fatalf("reading second output: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("second output has %d pages, want 1", doc.NumPages())
	}
	page, err := doc.Page(1)
	if err != nil {
		t.Fatal(err)
	}
	if !within(page.MediaBox.Width(), 595.28, 0.01) || !within(page.MediaBox.Height(), 841.89, 0.01) {
		t.Errorf("second output page size = %g x %g", page.MediaBox.Width(), page.MediaBox.Height())
	}
	if _, err := page.Layout(); err != nil {
		t.Errorf("second output layout: %v", err)
	}
}
