package reader

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBFormat implements Format for EPUB files. Each spine item is a page.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Open opens an EPUB file. The archive stays open until Close.
func (f *EPUBFormat) Open(filename string) (Document, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}

	if len(rc.Rootfiles) == 0 {
		rc.Close()
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	titles := buildTOCHrefMap(filename, book)

	doc := &epubDocument{rc: rc}
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		doc.items = append(doc.items, ref.Item)
		doc.chapters = append(doc.chapters, Chapter{
			ID:    ref.Item.ID,
			Title: chapterTitle(titles, ref.Item.HREF, i),
			HREF:  ref.Item.HREF,
		})
	}

	if len(doc.items) == 0 {
		rc.Close()
		return nil, fmt.Errorf("epub has an empty spine")
	}
	return doc, nil
}

type epubDocument struct {
	rc       *epub.ReadCloser
	items    []*epub.Item
	chapters []Chapter
	current  int
}

func (d *epubDocument) CurrentPage() int { return d.current }
func (d *epubDocument) NumPages() int    { return len(d.items) }
func (d *epubDocument) Spine() []Chapter { return cloneChapters(d.chapters) }

func (d *epubDocument) SetCurrentPage(n int) error {
	if n < 0 || n >= len(d.items) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, len(d.items))
	}
	d.current = n
	return nil
}

func (d *epubDocument) CurrentChapterID() (string, bool) {
	id := d.chapters[d.current].ID
	return id, id != ""
}

func (d *epubDocument) CurrentContent() (string, error) {
	r, err := d.items[d.current].Open()
	if err != nil {
		return "", fmt.Errorf("open spine item %s: %w", d.chapters[d.current].HREF, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read spine item %s: %w", d.chapters[d.current].HREF, err)
	}
	return extractTextFromHTML(string(data)), nil
}

// Close releases the archive. goreader's Close reports no error.
func (d *epubDocument) Close() error {
	d.rc.Close()
	return nil
}

func chapterTitle(titles map[string]string, href string, i int) string {
	if href != "" {
		if t, ok := titles[href]; ok && t != "" {
			return t
		}
		if t, ok := titles[path.Base(href)]; ok && t != "" {
			return t
		}
	}
	return fmt.Sprintf("Section %d", i+1)
}

// blockElements end a paragraph in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "title": true,
}

// extractTextFromHTML returns the visible text of an XHTML page. Block
// elements are separated by blank lines; runs of whitespace inside a block
// collapse to a single space.
func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var blocks []string
	var cur strings.Builder
	endBlock := func() {
		if t := strings.Join(strings.Fields(cur.String()), " "); t != "" {
			blocks = append(blocks, t)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			cur.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			endBlock()
		}
	}
	walk(doc)
	endBlock()
	return strings.Join(blocks, "\n\n")
}
