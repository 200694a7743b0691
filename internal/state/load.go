package state

import "github.com/metcalfc/leaf/internal/reader"

// OpenDocument is a loaded document owned by the Store.
type OpenDocument struct {
	Path        string
	Doc         reader.Document
	InitialPage *int
}

// LoadRequest asks a Loader to open Path off the consumer goroutine.
type LoadRequest struct {
	Token       uint64
	Path        string
	InitialPage *int
}

// Loader opens documents in the background and reports a LoadResult back to
// the Store as a new command. Load must not block.
type Loader interface {
	Load(req LoadRequest)
}

// LoadResult is the outcome of a LoadRequest: LoadSucceeded or LoadFailed.
type LoadResult interface {
	token() uint64
}

// LoadSucceeded carries the opened document.
type LoadSucceeded struct {
	Token    uint64
	Document *OpenDocument
}

// LoadFailed carries the reason a document could not be opened.
type LoadFailed struct {
	Token uint64
	Path  string
	Err   error
}

func (r LoadSucceeded) token() uint64 { return r.Token }
func (r LoadFailed) token() uint64    { return r.Token }
