package reader

// Chapter is one entry of a document's spine.
type Chapter struct {
	ID    string
	Title string
	HREF  string
}

// ChapterIndex returns the page index of the chapter with the given id.
func ChapterIndex(spine []Chapter, id string) (int, bool) {
	for i, ch := range spine {
		if ch.ID == id {
			return i, true
		}
	}
	return 0, false
}
