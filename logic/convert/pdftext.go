package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"convert-gateway/vars"
)

// PDFTextConverter extracts the text layer of a PDF in-process and writes it
// as <base>.md. It has no layout or OCR support and rejects every non-PDF.
type PDFTextConverter struct {
	loader *file.FileLoader
}

func NewPDFTextConverter(ctx context.Context) (*PDFTextConverter, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("creating pdf parser: %w", err)
	}
	l, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{Parser: p})
	if err != nil {
		return nil, fmt.Errorf("creating file loader: %w", err)
	}
	return &PDFTextConverter{loader: l}, nil
}

func (c *PDFTextConverter) Name() string { return vars.BackendPDFText }

func (c *PDFTextConverter) Convert(ctx context.Context, inputPath, format, outputDir string) error {
	if format != vars.OutputFormatMarkdown {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if !strings.EqualFold(filepath.Ext(inputPath), ".pdf") {
		return fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(inputPath))
	}

	docs, err := c.loader.Load(ctx, document.Source{URI: inputPath})
	if err != nil {
		return fmt.Errorf("load pdf failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	title := documentTitle(docs, inputPath)
	out := filepath.Join(outputDir, title+".md")
	if err := os.WriteFile(out, []byte(renderMarkdown(title, docs)), 0o640); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}

// documentTitle is the loaded file name without its extension. The loader
// tags every page with it; inputPath is the fallback for an empty result.
func documentTitle(docs []*schema.Document, inputPath string) string {
	name := filepath.Base(inputPath)
	if len(docs) > 0 {
		if v, ok := docs[0].MetaData[file.MetaKeyFileName].(string); ok && v != "" {
			name = v
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// renderMarkdown emits a title heading followed by one section per page.
// Pages keep their physical number; blank pages get no section.
func renderMarkdown(title string, docs []*schema.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)

	for i, doc := range docs {
		content := cleanText(doc.Content)
		if content == "" {
			continue
		}
		if len(docs) > 1 {
			fmt.Fprintf(&b, "\n## Page %d\n", i+1)
		}
		b.WriteString("\n")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}

// cleanText removes null bytes and invalid UTF-8, both common PDF parse noise.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return strings.TrimSpace(text)
}
