package reader

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files. A new page starts at
// every level 1 or level 2 heading.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

func (f *MarkdownFormat) Open(filename string) (Document, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var pages, titles []string
	var cur strings.Builder
	title := "Document"

	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			pages = append(pages, text)
			titles = append(titles, title)
		}
		cur.Reset()
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if match := headerRegex.FindStringSubmatch(line); match != nil && len(match[1]) <= 2 {
			flush()
			title = strings.TrimSpace(match[2])
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	if len(pages) == 0 {
		pages = []string{""}
		titles = []string{"Document"}
	}
	return NewTextDocument(pages, titles), nil
}
