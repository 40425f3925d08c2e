package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	revise "github.com/SonoItalianoVero/refactored-lamp"
	"github.com/SonoItalianoVero/refactored-lamp/docgen"
	"github.com/SonoItalianoVero/refactored-lamp/form"
	"github.com/SonoItalianoVero/refactored-lamp/pageops"
	"github.com/SonoItalianoVero/refactored-lamp/reader"
)

// RegisterDefaultTools adds all built-in PDF tools to the server.
func RegisterDefaultTools(s *Server) {
	s.AddTool(revisePDFTool())
	s.AddTool(previewRevisionTool())
	s.AddTool(readPDFTextTool())
	s.AddTool(extractLayoutTool())
	s.AddTool(pdfInfoTool())
	s.AddTool(renderTemplateTool())
	s.AddTool(fillFormTool())
	s.AddTool(flattenFormTool())
	s.AddTool(mergePDFsTool())
	s.AddTool(extractPagesTool())
	s.AddTool(rotatePagesTool())
	s.AddTool(stampPDFTool())
}

// argString returns the named argument as a string, or "" when absent.
func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// argFloat returns the named argument as a float64. JSON numbers always
// decode to float64.
func argFloat(args map[string]interface{}, key string) (float64, bool) {
	v, ok := args[key].(float64)
	return v, ok
}

// argInts returns the named array argument as ints, skipping entries of
// other types.
func argInts(args map[string]interface{}, key string) []int {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var out []int
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}

// argStrings returns the named array argument as strings.
func argStrings(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// engineFromArgs builds a revision engine honoring the optional
// anchorRatio argument.
func engineFromArgs(args map[string]interface{}) (*revise.Engine, error) {
	var opts []revise.Option
	if ratio, ok := argFloat(args, "anchorRatio"); ok {
		opts = append(opts, revise.WithAnchorRatio(ratio))
	}
	return revise.New(opts...)
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func jsonResult(v interface{}) (ToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return textResult(string(data)), nil
}

// deliverPDF saves out to outputPath when one is given, otherwise inlines
// the bytes as base64.
func deliverPDF(out []byte, outputPath, summary string) (ToolResult, error) {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return textResult(fmt.Sprintf("%s: %s (%d bytes)", summary, outputPath, len(out))), nil
	}
	encoded := base64.StdEncoding.EncodeToString(out)
	return textResult(fmt.Sprintf("%s (%d bytes). Base64 data:\n%s", summary, len(out), encoded)), nil
}

func revisePDFTool() Tool {
	return Tool{
		Name:        "revise_pdf",
		Description: "Rewrite the euro amounts and dates in a PDF: every detected amount becomes the given replacement amount in the source's own formatting style, every detected date becomes today's date. Position, font, and page geometry are preserved.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the source PDF",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path for the revised PDF. If omitted, returns base64.",
				},
				"amount": map[string]interface{}{
					"type":        "number",
					"description": "Replacement amount, e.g. 7500.50",
				},
				"anchorRatio": map[string]interface{}{
					"type":        "number",
					"description": "Vertical text anchor as a fraction of token height, 0 to 1 (default 0.265)",
				},
			},
			"required": []string{"inputPath", "amount"},
		},
		Handler: handleRevisePDF,
	}
}

func handleRevisePDF(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	amount, haveAmount := argFloat(args, "amount")
	if inputPath == "" || !haveAmount {
		return ToolResult{}, fmt.Errorf("inputPath and amount are required")
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return ToolResult{}, fmt.Errorf("reading input: %w", err)
	}
	eng, err := engineFromArgs(args)
	if err != nil {
		return ToolResult{}, err
	}
	out, err := eng.Apply(ctx, src, amount)
	if err != nil {
		return ToolResult{}, err
	}
	return deliverPDF(out, argString(args, "outputPath"), "Revised PDF")
}

func previewRevisionTool() Tool {
	return Tool{
		Name:        "preview_revision",
		Description: "Report which amounts and dates revise_pdf would rewrite, with their positions, fonts, and replacement texts, without producing a PDF.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the source PDF",
				},
				"amount": map[string]interface{}{
					"type":        "number",
					"description": "Replacement amount, e.g. 7500.50",
				},
				"anchorRatio": map[string]interface{}{
					"type":        "number",
					"description": "Vertical text anchor as a fraction of token height, 0 to 1 (default 0.265)",
				},
			},
			"required": []string{"inputPath", "amount"},
		},
		Handler: handlePreviewRevision,
	}
}

func handlePreviewRevision(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	amount, haveAmount := argFloat(args, "amount")
	if inputPath == "" || !haveAmount {
		return ToolResult{}, fmt.Errorf("inputPath and amount are required")
	}

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return ToolResult{}, fmt.Errorf("reading input: %w", err)
	}
	eng, err := engineFromArgs(args)
	if err != nil {
		return ToolResult{}, err
	}
	rep, err := eng.Plan(ctx, src, amount)
	if err != nil {
		return ToolResult{}, err
	}

	pages := make([]map[string]interface{}, 0, len(rep.Pages))
	for _, p := range rep.Pages {
		hits := make([]map[string]interface{}, 0, len(p.Hits))
		for _, h := range p.Hits {
			hits = append(hits, map[string]interface{}{
				"kind":        h.Kind.String(),
				"text":        h.SourceText,
				"replacement": h.Replacement,
				"x":           h.BBox.X0,
				"y":           h.BBox.Y0,
				"width":       h.BBox.Width(),
				"height":      h.BBox.Height(),
				"fontFamily":  h.FontFamily,
				"fontStyle":   h.FontStyle.String(),
				"fontSize":    h.FontSize,
			})
		}
		pages = append(pages, map[string]interface{}{
			"page":   p.Page,
			"width":  p.Width,
			"height": p.Height,
			"hits":   hits,
		})
	}
	return jsonResult(map[string]interface{}{
		"totalHits": rep.TotalHits(),
		"pages":     pages,
	})
}

func readPDFTextTool() Tool {
	return Tool{
		Name:        "read_pdf_text",
		Description: "Extract text content from a PDF file. Returns the text from all pages or specific pages.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
				"pages": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Specific page numbers to extract (1-based). Omit for all pages.",
				},
			},
			"required": []string{"path"},
		},
		Handler: handleReadPDFText,
	}
}

func handleReadPDFText(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	path := argString(args, "path")
	if path == "" {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}

	doc, err := reader.Open(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("opening PDF: %w", err)
	}

	selected := make(map[int]bool)
	for _, p := range argInts(args, "pages") {
		selected[p] = true
	}

	var result strings.Builder
	for pageNum, page := range doc.Pages() {
		if len(selected) > 0 && !selected[pageNum] {
			continue
		}

		text, err := page.ExtractText()
		if err != nil {
			fmt.Fprintf(&result, "--- Page %d (error: %v) ---\n", pageNum, err)
			continue
		}

		fmt.Fprintf(&result, "--- Page %d ---\n%s\n\n", pageNum, text)
	}

	return textResult(result.String()), nil
}

func extractLayoutTool() Tool {
	return Tool{
		Name:        "extract_layout",
		Description: "Extract the positioned text layout of a PDF: every line with its text, bounding box, font, and size. Coordinates are PDF points with the origin at the bottom left.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
				"pages": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Specific page numbers to extract (1-based). Omit for all pages.",
				},
			},
			"required": []string{"path"},
		},
		Handler: handleExtractLayout,
	}
}

func handleExtractLayout(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	path := argString(args, "path")
	if path == "" {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}

	doc, err := reader.Open(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("opening PDF: %w", err)
	}

	selected := make(map[int]bool)
	for _, p := range argInts(args, "pages") {
		selected[p] = true
	}

	pages := make([]map[string]interface{}, 0, doc.NumPages())
	for pageNum, page := range doc.Pages() {
		if len(selected) > 0 && !selected[pageNum] {
			continue
		}
		layout, err := page.Layout()
		if err != nil {
			return ToolResult{}, fmt.Errorf("page %d layout: %w", pageNum, err)
		}
		lines := make([]map[string]interface{}, 0, len(layout.Lines))
		for _, line := range layout.Lines {
			entry := map[string]interface{}{
				"text": line.Text,
				"x0":   line.X0,
				"y0":   line.Y0,
				"x1":   line.X1,
				"y1":   line.Y1,
			}
			if len(line.Glyphs) > 0 {
				entry["font"] = line.Glyphs[0].FontName
				entry["fontSize"] = line.Glyphs[0].FontSize
			}
			lines = append(lines, entry)
		}
		pages = append(pages, map[string]interface{}{
			"page":   pageNum,
			"width":  page.MediaBox.Width(),
			"height": page.MediaBox.Height(),
			"lines":  lines,
		})
	}
	return jsonResult(map[string]interface{}{"pages": pages})
}

func pdfInfoTool() Tool {
	return Tool{
		Name:        "pdf_info",
		Description: "Get detailed information about a PDF file: version, page count and dimensions, document metadata, XMP metadata, form fields, and digital signatures.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
			},
			"required": []string{"path"},
		},
		Handler: handlePDFInfo,
	}
}

func handlePDFInfo(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	path := argString(args, "path")
	if path == "" {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}

	doc, err := reader.Open(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("opening PDF: %w", err)
	}

	info := map[string]interface{}{
		"version":   doc.Version,
		"numPages":  doc.NumPages(),
		"encrypted": doc.IsEncrypted(),
		"metadata":  doc.Metadata(),
	}

	if xmp, err := doc.XMP(); err == nil && xmp != nil {
		xmpInfo := make(map[string]string)
		for key, value := range map[string]string{
			"title":       xmp.Title,
			"creator":     xmp.Creator,
			"description": xmp.Description,
			"keywords":    xmp.Keywords,
			"producer":    xmp.Producer,
			"creatorTool": xmp.CreatorTool,
			"createDate":  xmp.CreateDate,
			"modifyDate":  xmp.ModifyDate,
		} {
			if value != "" {
				xmpInfo[key] = value
			}
		}
		if len(xmpInfo) > 0 {
			info["xmp"] = xmpInfo
		}
	}

	if fields, err := doc.FormFields(); err == nil && len(fields) > 0 {
		fieldInfo := make([]map[string]interface{}, 0)
		for _, f := range flattenFormFields(fields) {
			fieldInfo = append(fieldInfo, map[string]interface{}{
				"name":  f.FullName,
				"type":  f.Type,
				"value": f.Value,
			})
		}
		info["formFields"] = fieldInfo
	}

	if sigs, err := doc.Signatures(); err == nil && len(sigs) > 0 {
		sigInfo := make([]map[string]interface{}, 0, len(sigs))
		for _, sig := range sigs {
			si := map[string]interface{}{
				"field":               sig.FieldName,
				"filter":              sig.Filter,
				"subFilter":           sig.SubFilter,
				"coversWholeDocument": sig.CoversWholeDocument,
			}
			if sig.Name != "" {
				si["name"] = sig.Name
			}
			if sig.Reason != "" {
				si["reason"] = sig.Reason
			}
			if sig.Location != "" {
				si["location"] = sig.Location
			}
			if !sig.SignedAt.IsZero() {
				si["signedAt"] = sig.SignedAt.Format(time.RFC3339)
			}
			sigInfo = append(sigInfo, si)
		}
		info["signatures"] = sigInfo
	}

	pageInfos := make([]map[string]interface{}, 0, doc.NumPages())
	for pageNum, page := range doc.Pages() {
		mb := page.MediaBox
		pageInfos = append(pageInfos, map[string]interface{}{
			"page":   pageNum,
			"width":  mb.Width(),
			"height": mb.Height(),
			"rotate": page.Rotate,
		})
	}
	info["pages"] = pageInfos

	return jsonResult(info)
}

func renderTemplateTool() Tool {
	return Tool{
		Name:        "render_template",
		Description: "Render a PDF from a JSON document template. The template supports headings, paragraphs, tables, images, barcodes, markdown blocks, lists, rules, and spacers; {name} placeholders are substituted from the optional fields mapping.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"template": map[string]interface{}{
					"type":        "object",
					"description": "JSON document template with title, pageSize, pages, and elements",
				},
				"fields": map[string]interface{}{
					"type":        "object",
					"description": "Optional field values substituted into {name} placeholders",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to save the PDF. If omitted, returns base64.",
				},
			},
			"required": []string{"template"},
		},
		Handler: handleRenderTemplate,
	}
}

func handleRenderTemplate(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	templateData, ok := args["template"]
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'template' argument")
	}

	jsonBytes, err := json.Marshal(templateData)
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding template: %w", err)
	}

	fields := make(docgen.Fields)
	if raw, ok := args["fields"].(map[string]interface{}); ok {
		for k, v := range raw {
			fields[k] = fmt.Sprintf("%v", v)
		}
	}

	var buf bytes.Buffer
	if err := docgen.RenderFields(&buf, jsonBytes, fields); err != nil {
		return ToolResult{}, fmt.Errorf("rendering template: %w", err)
	}
	return deliverPDF(buf.Bytes(), argString(args, "outputPath"), "Rendered PDF")
}

func fillFormTool() Tool {
	return Tool{
		Name:        "fill_form",
		Description: "Fill form fields in a PDF with provided values.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the input PDF with form fields",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the filled output PDF",
				},
				"values": map[string]interface{}{
					"type":        "object",
					"description": "Map of field names to values",
				},
			},
			"required": []string{"inputPath", "outputPath", "values"},
		},
		Handler: handleFillForm,
	}
}

func handleFillForm(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	outputPath := argString(args, "outputPath")
	valuesRaw, _ := args["values"].(map[string]interface{})

	if inputPath == "" || outputPath == "" {
		return ToolResult{}, fmt.Errorf("inputPath and outputPath are required")
	}

	values := make(map[string]string)
	for k, v := range valuesRaw {
		values[k] = fmt.Sprintf("%v", v)
	}

	if err := form.FillFile(inputPath, outputPath, values); err != nil {
		return ToolResult{}, err
	}

	return textResult(fmt.Sprintf("Filled %d form fields in %s -> %s", len(values), inputPath, outputPath)), nil
}

func flattenFormTool() Tool {
	return Tool{
		Name:        "flatten_form",
		Description: "Flatten a PDF form, making form fields non-editable and embedding their values as static content.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the input PDF with form fields",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the flattened output PDF",
				},
			},
			"required": []string{"inputPath", "outputPath"},
		},
		Handler: handleFlattenForm,
	}
}

func handleFlattenForm(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	outputPath := argString(args, "outputPath")

	if inputPath == "" || outputPath == "" {
		return ToolResult{}, fmt.Errorf("inputPath and outputPath are required")
	}

	if err := form.FlattenFile(inputPath, outputPath); err != nil {
		return ToolResult{}, err
	}

	return textResult(fmt.Sprintf("Form flattened: %s -> %s", inputPath, outputPath)), nil
}

func mergePDFsTool() Tool {
	return Tool{
		Name:        "merge_pdfs",
		Description: "Merge multiple PDF files into a single PDF.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPaths": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Paths to PDF files to merge, in order",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the merged output PDF",
				},
			},
			"required": []string{"inputPaths", "outputPath"},
		},
		Handler: handleMergePDFs,
	}
}

func handleMergePDFs(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	paths := argStrings(args, "inputPaths")
	outputPath := argString(args, "outputPath")

	if len(paths) == 0 || outputPath == "" {
		return ToolResult{}, fmt.Errorf("inputPaths and outputPath are required")
	}

	if err := pageops.MergeFiles(outputPath, paths...); err != nil {
		return ToolResult{}, err
	}

	return textResult(fmt.Sprintf("Merged %d PDFs into %s", len(paths), outputPath)), nil
}

func extractPagesTool() Tool {
	return Tool{
		Name:        "extract_pages",
		Description: "Extract selected pages of a PDF into a new document, in the order given.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the input PDF",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the output PDF",
				},
				"pages": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Page numbers to extract (1-based), in output order",
				},
			},
			"required": []string{"inputPath", "outputPath", "pages"},
		},
		Handler: handleExtractPages,
	}
}

func handleExtractPages(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	outputPath := argString(args, "outputPath")
	pages := argInts(args, "pages")

	if inputPath == "" || outputPath == "" || len(pages) == 0 {
		return ToolResult{}, fmt.Errorf("inputPath, outputPath, and pages are required")
	}

	if err := pageops.ExtractPagesToFile(inputPath, outputPath, pages...); err != nil {
		return ToolResult{}, err
	}

	return textResult(fmt.Sprintf("Extracted pages %v from %s -> %s", pages, inputPath, outputPath)), nil
}

func rotatePagesTool() Tool {
	return Tool{
		Name:        "rotate_pages",
		Description: "Rotate pages in a PDF by a specified angle (90, 180, or 270 degrees).",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the input PDF",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the output PDF",
				},
				"angle": map[string]interface{}{
					"type":        "number",
					"description": "Rotation angle: 90, 180, or 270",
				},
				"pages": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Page numbers to rotate (1-based). Omit for all pages.",
				},
			},
			"required": []string{"inputPath", "outputPath", "angle"},
		},
		Handler: handleRotatePages,
	}
}

func handleRotatePages(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	outputPath := argString(args, "outputPath")
	angleF, haveAngle := argFloat(args, "angle")

	if inputPath == "" || outputPath == "" || !haveAngle {
		return ToolResult{}, fmt.Errorf("inputPath, outputPath, and angle are required")
	}

	pages := argInts(args, "pages")
	if err := pageops.RotateToFile(inputPath, outputPath, int(angleF), pages...); err != nil {
		return ToolResult{}, err
	}

	pagesDesc := "all pages"
	if len(pages) > 0 {
		pagesDesc = fmt.Sprintf("pages %v", pages)
	}
	return textResult(fmt.Sprintf("Rotated %s by %d degrees in %s -> %s", pagesDesc, int(angleF), inputPath, outputPath)), nil
}

func stampPDFTool() Tool {
	return Tool{
		Name:        "stamp_pdf",
		Description: "Stamp translucent diagonal text across the pages of a PDF (e.g. 'CONFIDENTIAL', 'DRAFT').",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"inputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path to the input PDF",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Path for the output PDF",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Stamp text (e.g. 'CONFIDENTIAL', 'DRAFT')",
				},
				"fontSize": map[string]interface{}{
					"type":        "number",
					"description": "Font size in points (default: 60)",
				},
				"opacity": map[string]interface{}{
					"type":        "number",
					"description": "Opacity from 0.0 to 1.0 (default: 0.3)",
				},
				"angle": map[string]interface{}{
					"type":        "number",
					"description": "Rotation angle in degrees (default: 45)",
				},
				"pages": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Page numbers to stamp (1-based). Omit for all pages.",
				},
			},
			"required": []string{"inputPath", "outputPath", "text"},
		},
		Handler: handleStampPDF,
	}
}

func handleStampPDF(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	inputPath := argString(args, "inputPath")
	outputPath := argString(args, "outputPath")
	text := argString(args, "text")

	if inputPath == "" || outputPath == "" || text == "" {
		return ToolResult{}, fmt.Errorf("inputPath, outputPath, and text are required")
	}

	st := pageops.Stamp{Text: text}
	if fs, ok := argFloat(args, "fontSize"); ok {
		st.FontSize = fs
	}
	if op, ok := argFloat(args, "opacity"); ok {
		st.Opacity = op
	}
	if angle, ok := argFloat(args, "angle"); ok {
		st.Angle = angle
	}

	pages := argInts(args, "pages")
	if err := pageops.StampTextToFile(inputPath, outputPath, st, pages...); err != nil {
		return ToolResult{}, err
	}

	return textResult(fmt.Sprintf("Stamped '%s' onto %s -> %s", text, inputPath, outputPath)), nil
}

// flattenFormFields recursively collects all form fields.
func flattenFormFields(fields []*reader.FormField) []*reader.FormField {
	var result []*reader.FormField
	for _, f := range fields {
		result = append(result, f)
		if len(f.Kids) > 0 {
			result = append(result, flattenFormFields(f.Kids)...)
		}
	}
	return result
}
