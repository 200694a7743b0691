package reader

import (
	"os"
	"strings"
)

// linesPerPage is how many lines of a plain text file make one page.
const linesPerPage = 120

// TextFormat implements Format for plain text files.
type TextFormat struct{}

func init() {
	Register(&TextFormat{})
}

func (f *TextFormat) Name() string         { return "Text" }
func (f *TextFormat) Extensions() []string { return []string{".txt", ".text"} }

func (f *TextFormat) Open(filename string) (Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewTextDocument(paginate(string(data), linesPerPage), nil), nil
}

// paginate splits text into pages of at most n lines. Form feeds always
// start a new page. The result has at least one page.
func paginate(text string, n int) []string {
	var pages []string
	for _, section := range strings.Split(text, "\f") {
		lines := strings.Split(strings.TrimRight(section, "\n"), "\n")
		for start := 0; start < len(lines); start += n {
			end := min(start+n, len(lines))
			page := strings.Join(lines[start:end], "\n")
			if strings.TrimSpace(page) != "" {
				pages = append(pages, page)
			}
		}
	}
	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages
}
