package indexer

import "context"

// SourceDoc is a raw file fetched from a document source.
type SourceDoc struct {
	Path string
	URL  string
	Data []byte
}

// Source lists and fetches documents for IndexAll.
type Source interface {
	// Revision identifies the state of the source, e.g. a commit SHA.
	Revision(ctx context.Context) (string, error)
	ListDocs(ctx context.Context) ([]string, error)
	FetchDoc(ctx context.Context, path string) (*SourceDoc, error)
}
