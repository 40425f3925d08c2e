// Package revise rewrites monetary amounts and dates in place on existing
// PDF documents. It locates each token in the page text layout, blanks the
// token's region, and draws a replacement in the source document's own
// style: same position, same size, matching font, and the original euro
// symbol placement for amounts.
//
// A single Engine call is synchronous and stateless: input bytes and one
// replacement amount in, revised bytes out. Dates are replaced with the
// current date in the configured timezone. Page analysis fans out over a
// bounded worker pool; output bytes do not depend on the worker count.
package revise

import (
	"context"
	"fmt"
	"sync"

	"github.com/SonoItalianoVero/refactored-lamp/overlay"
	"github.com/SonoItalianoVero/refactored-lamp/reader"
	"github.com/SonoItalianoVero/refactored-lamp/scan"
)

// Engine applies one replacement policy to documents. It is safe for
// concurrent use; every call works on fresh state.
type Engine struct {
	cfg engineConfig
}

// New creates an Engine. Without options the anchor ratio comes from
// REVISE_ANCHOR_RATIO (default 0.265), dates render in Europe/Amsterdam,
// and fonts resolve through the process-wide registry.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.anchorRatio < 0 || cfg.anchorRatio > 1 {
		return nil, newError("config", fmt.Errorf("%w: anchor ratio %v outside [0,1]", ErrInvalidParam, cfg.anchorRatio))
	}
	if cfg.workers < 1 {
		return nil, newError("config", fmt.Errorf("%w: worker count %d", ErrInvalidParam, cfg.workers))
	}
	if cfg.registry == nil {
		cfg.registry = overlay.DefaultRegistry()
	}
	if cfg.clock == nil {
		return nil, newError("config", fmt.Errorf("%w: nil clock", ErrInvalidParam))
	}
	if cfg.location == nil {
		cfg.location = amsterdam()
	}
	return &Engine{cfg: cfg}, nil
}

// Apply replaces every detected amount and date in src and returns the
// revised document. Page count, sizes and order are preserved; a document
// without matches comes back merged but visually unchanged. The operation
// is cancellable between pages and produces no partial output.
func (e *Engine) Apply(ctx context.Context, src []byte, amount float64) ([]byte, error) {
	doc, err := e.parse(src)
	if err != nil {
		return nil, err
	}
	if doc.IsEncrypted() {
		return nil, newError("compose", fmt.Errorf("%w: encrypted documents cannot be recomposed", ErrEncrypted))
	}

	pageHits, err := e.analyze(ctx, doc)
	if err != nil {
		return nil, err
	}

	now := e.cfg.clock().In(e.cfg.location)
	pol := overlay.Policy{
		NewAmount:   amount,
		Date:        scan.FormatDate(now),
		AnchorRatio: e.cfg.anchorRatio,
	}

	plans := make([]overlay.PagePlan, doc.NumPages())
	for i := range plans {
		page, err := doc.Page(i + 1)
		if err != nil {
			return nil, newError("compose", err)
		}
		plans[i] = overlay.BuildPlan(page.MediaBox, pageHits[i], pol)
	}

	comp := overlay.Composer{Created: now, Fonts: e.cfg.registry}
	out, err := comp.Compose(ctx, src, plans)
	if err != nil {
		return nil, newError("compose", err)
	}
	return out, nil
}

// Plan analyzes src without rendering and reports every hit the engine
// would replace, with geometry and replacement text per hit.
func (e *Engine) Plan(ctx context.Context, src []byte, amount float64) (*Report, error) {
	doc, err := e.parse(src)
	if err != nil {
		return nil, err
	}

	pageHits, err := e.analyze(ctx, doc)
	if err != nil {
		return nil, err
	}

	now := e.cfg.clock().In(e.cfg.location)
	pol := overlay.Policy{
		NewAmount:   amount,
		Date:        scan.FormatDate(now),
		AnchorRatio: e.cfg.anchorRatio,
	}

	rep := &Report{Pages: make([]PageReport, doc.NumPages())}
	for i := range rep.Pages {
		page, err := doc.Page(i + 1)
		if err != nil {
			return nil, newError("analyze", err)
		}
		pr := PageReport{
			Page:   i + 1,
			Width:  page.MediaBox.Width(),
			Height: page.MediaBox.Height(),
		}
		for _, h := range pageHits[i] {
			pr.Hits = append(pr.Hits, HitReport{Hit: h, Replacement: overlay.ReplacementFor(h, pol)})
		}
		rep.Pages[i] = pr
	}
	return rep, nil
}

// parse reads the document and rejects input the engine cannot work on.
func (e *Engine) parse(src []byte) (*reader.Document, error) {
	doc, err := reader.ReadBytes(src)
	if err != nil {
		return nil, newError("parse", fmt.Errorf("%w: %w", ErrBadDocument, err))
	}
	if doc.NumPages() == 0 {
		return nil, newError("parse", fmt.Errorf("%w: document has no pages", ErrBadDocument))
	}
	return doc, nil
}

// analyze extracts layout and resolves hits for every page, fanning the
// pages out over the worker pool. Results are indexed by page so the
// outcome is independent of scheduling; the first page error wins.
func (e *Engine) analyze(ctx context.Context, doc *reader.Document) ([][]overlay.Hit, error) {
	n := doc.NumPages()
	hits := make([][]overlay.Hit, n)
	errs := make([]error, n)

	workers := e.cfg.workers
	if workers > n {
		workers = n
	}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				hits[i], errs[i] = analyzePage(doc, i+1, e.cfg.anchorRatio)
			}
		}()
	}
	for i := 0; i < n && ctx.Err() == nil; i++ {
		work <- i
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, newError("analyze", err)
	}
	for i, err := range errs {
		if err != nil {
			return nil, newError("analyze", fmt.Errorf("%w: page %d: %w", ErrBadDocument, i+1, err))
		}
	}
	return hits, nil
}

// analyzePage runs the per-page pipeline: layout extraction, pattern
// matching, hit resolution.
func analyzePage(doc *reader.Document, pageNum int, anchorRatio float64) ([]overlay.Hit, error) {
	page, err := doc.Page(pageNum)
	if err != nil {
		return nil, err
	}
	layout, err := page.Layout()
	if err != nil {
		return nil, err
	}
	return overlay.FindHits(layout, anchorRatio), nil
}

// Report is the analysis result of one engine run: every page in order
// with the hits that would be replaced.
type Report struct {
	Pages []PageReport
}

// TotalHits returns the number of hits across all pages.
func (r *Report) TotalHits() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Hits)
	}
	return n
}

// PageReport describes one page of a report. Page numbers are 1-based;
// Width and Height are the media box dimensions in points.
type PageReport struct {
	Page   int
	Width  float64
	Height float64
	Hits   []HitReport
}

// HitReport pairs a resolved hit with the text that replaces it.
type HitReport struct {
	overlay.Hit
	Replacement string
}
