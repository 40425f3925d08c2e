// Command revise rewrites the euro amounts and dates found in a PDF,
// preserving their position, font, and size. It can also report what would
// be rewritten, extract document text or info, and render JSON templates.
//
// # Usage
//
//	revise -in invoice.pdf -out revised.pdf -amount 7500.50
//	revise -plan -in invoice.pdf -amount 7500.50
//	revise -text -in invoice.pdf
//	revise -info -in invoice.pdf
//	revise -render template.json -out out.pdf
//
// Replacement fonts can be registered per family with repeatable -font
// flags, e.g. -font calibri=Calibri.ttf -font calibri:B=Calibri-Bold.ttf.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	revise "github.com/SonoItalianoVero/refactored-lamp"
	"github.com/SonoItalianoVero/refactored-lamp/docgen"
	"github.com/SonoItalianoVero/refactored-lamp/overlay"
	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// fontEntry is one -font mapping.
type fontEntry struct {
	family string
	style  overlay.FontStyle
	path   string
}

// fontFlag collects repeatable -font flags of the form family=path.ttf,
// or family:B=path.ttf for the bold face.
type fontFlag struct {
	entries []fontEntry
}

func (f *fontFlag) String() string {
	parts := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		name := e.family
		if e.style == overlay.Bold {
			name += ":B"
		}
		parts = append(parts, name+"="+e.path)
	}
	return strings.Join(parts, ",")
}

func (f *fontFlag) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("want family[:B]=path.ttf, got %q", v)
	}
	style := overlay.Regular
	if fam, st, ok := strings.Cut(name, ":"); ok {
		if !strings.EqualFold(st, "B") {
			return fmt.Errorf("unknown style %q, want B", st)
		}
		name, style = fam, overlay.Bold
	}
	f.entries = append(f.entries, fontEntry{family: name, style: style, path: path})
	return nil
}

type options struct {
	plan, text, info bool
	render           string
	in, out          string
	amount           float64
	amountSet        bool
	anchor           float64
	fonts            fontFlag
}

func main() {
	var opts options
	flag.BoolVar(&opts.plan, "plan", false, "report what would be rewritten without producing a PDF")
	flag.BoolVar(&opts.text, "text", false, "extract the text content of the input")
	flag.BoolVar(&opts.info, "info", false, "print document information as JSON")
	flag.StringVar(&opts.render, "render", "", "render the JSON template at `path` instead of revising")
	flag.StringVar(&opts.in, "in", "", "input PDF `path`")
	flag.StringVar(&opts.out, "out", "", "output `path` (text modes default to stdout)")
	flag.Float64Var(&opts.amount, "amount", 0, "replacement amount, e.g. 7500.50")
	flag.Float64Var(&opts.anchor, "anchor", -1, "vertical text anchor ratio in [0,1] (default 0.265, or REVISE_ANCHOR_RATIO)")
	flag.Var(&opts.fonts, "font", "replacement font as family[:B]=path.ttf (repeatable)")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "amount" {
			opts.amountSet = true
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "revise: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	switch {
	case opts.render != "":
		return runRender(opts)
	case opts.text:
		return runText(opts)
	case opts.info:
		return runInfo(opts)
	case opts.plan:
		return runPlan(ctx, opts)
	default:
		return runRevise(ctx, opts)
	}
}

// newEngine builds the revision engine from the -anchor and -font flags.
func newEngine(opts options) (*revise.Engine, error) {
	var engOpts []revise.Option
	if opts.anchor >= 0 {
		engOpts = append(engOpts, revise.WithAnchorRatio(opts.anchor))
	}
	if len(opts.fonts.entries) > 0 {
		reg := overlay.NewRegistry()
		for _, e := range opts.fonts.entries {
			if err := reg.RegisterTTF(e.family, e.style, e.path); err != nil {
				return nil, err
			}
		}
		engOpts = append(engOpts, revise.WithFontRegistry(reg))
	}
	return revise.New(engOpts...)
}

func readInput(opts options) ([]byte, error) {
	if opts.in == "" {
		return nil, fmt.Errorf("missing -in")
	}
	src, err := os.ReadFile(opts.in)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", opts.in, err)
	}
	return src, nil
}

// writeOutput writes data to -out, or to stdout when no path is set.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func runRevise(ctx context.Context, opts options) error {
	if !opts.amountSet {
		return fmt.Errorf("missing -amount")
	}
	if opts.out == "" {
		return fmt.Errorf("missing -out")
	}
	src, err := readInput(opts)
	if err != nil {
		return err
	}
	eng, err := newEngine(opts)
	if err != nil {
		return err
	}
	out, err := eng.Apply(ctx, src, opts.amount)
	if err != nil {
		return err
	}
	return writeOutput(opts.out, out)
}

func runPlan(ctx context.Context, opts options) error {
	if !opts.amountSet {
		return fmt.Errorf("missing -amount")
	}
	src, err := readInput(opts)
	if err != nil {
		return err
	}
	eng, err := newEngine(opts)
	if err != nil {
		return err
	}
	rep, err := eng.Plan(ctx, src, opts.amount)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d hits on %d pages\n", opts.in, rep.TotalHits(), len(rep.Pages))
	for _, p := range rep.Pages {
		for _, h := range p.Hits {
			fmt.Fprintf(&b, "page %d %-6s %q -> %q at (%.1f, %.1f) size %.1f %s %s\n",
				p.Page, h.Kind, h.SourceText, h.Replacement,
				h.BBox.X0, h.BBox.Y0, h.FontSize, h.FontFamily, h.FontStyle)
		}
	}
	return writeOutput(opts.out, []byte(b.String()))
}

func runText(opts options) error {
	if opts.in == "" {
		return fmt.Errorf("missing -in")
	}
	doc, err := reader.Open(opts.in)
	if err != nil {
		return err
	}

	var b strings.Builder
	for pageNum, page := range doc.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			return fmt.Errorf("page %d: %w", pageNum, err)
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", pageNum, text)
	}
	return writeOutput(opts.out, []byte(b.String()))
}

func runInfo(opts options) error {
	if opts.in == "" {
		return fmt.Errorf("missing -in")
	}
	doc, err := reader.Open(opts.in)
	if err != nil {
		return err
	}

	info := map[string]interface{}{
		"version":   doc.Version,
		"numPages":  doc.NumPages(),
		"encrypted": doc.IsEncrypted(),
		"metadata":  doc.Metadata(),
	}

	pages := make([]map[string]interface{}, 0, doc.NumPages())
	for pageNum, page := range doc.Pages() {
		pages = append(pages, map[string]interface{}{
			"page":   pageNum,
			"width":  page.MediaBox.Width(),
			"height": page.MediaBox.Height(),
			"rotate": page.Rotate,
		})
	}
	info["pages"] = pages

	if fields, err := doc.FormFields(); err == nil && len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.FullName)
		}
		info["formFields"] = names
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(opts.out, append(data, '\n'))
}

func runRender(opts options) error {
	if opts.out == "" {
		return fmt.Errorf("missing -out")
	}
	tpl, err := os.ReadFile(opts.render)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", opts.render, err)
	}

	var buf bytes.Buffer
	if err := docgen.Render(&buf, tpl); err != nil {
		return err
	}
	return writeOutput(opts.out, buf.Bytes())
}
