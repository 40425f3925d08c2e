// Command revise-mcp is an MCP (Model Context Protocol) server that exposes
// the document revision engine and its PDF toolkit to AI assistants.
//
// # Installation
//
//	go install github.com/SonoItalianoVero/refactored-lamp/cmd/revise-mcp@latest
//
// # Configuration for Claude Desktop
//
// Add to ~/.config/claude/claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "revise": {
//	      "command": "revise-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - revise_pdf: Rewrite euro amounts and dates in place
//   - preview_revision: Report what revise_pdf would rewrite
//   - read_pdf_text: Extract text from PDFs
//   - extract_layout: Extract positioned text layout
//   - pdf_info: Get detailed PDF information
//   - render_template: Render PDFs from JSON templates
//   - fill_form: Fill PDF form fields
//   - flatten_form: Flatten PDF forms
//   - merge_pdfs: Merge multiple PDFs
//   - extract_pages: Extract selected pages
//   - rotate_pages: Rotate PDF pages
//   - stamp_pdf: Stamp translucent text across pages
//
// # Available Resources
//
//   - pdf://text?path=... : Extract text content
//   - pdf://layout?path=... : Positioned text layout
//   - pdf://metadata?path=... : Document metadata and info
//   - pdf://form-fields?path=... : List form fields
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SonoItalianoVero/refactored-lamp/mcp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer()

	mcp.RegisterDefaultTools(server)
	mcp.RegisterDefaultResources(server)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "revise-mcp: %v\n", err)
		os.Exit(1)
	}
}
