package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/go-github/v81/github"

	"github.com/ocragent/ocr-agent-pro/internal/extract"
	"github.com/ocragent/ocr-agent-pro/internal/indexer"
)

// Fetcher lists and downloads extractable documents (txt, md, pdf) below a
// repository directory. It implements indexer.Source.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a new document fetcher
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// Repository returns "owner/repo".
func (f *Fetcher) Repository() string {
	return f.owner + "/" + f.repo
}

// ListDocs recursively lists supported files, relative to the base path.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDocsRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listDocsRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var docs []string

	// List the directory
	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("get contents of %s: %w", fullPath, err)
	}

	// Walk each entry
	for _, item := range dirContents {
		name := item.GetName()
		if name == "" {
			continue
		}
		itemRelPath := path.Join(relativePath, name)

		switch item.GetType() {
		case "file":
			// Only keep formats the extractor can read
			if extract.Supported(name) {
				docs = append(docs, itemRelPath)
			}
		case "dir":
			// Recurse into subdirectories
			subDocs, err := f.listDocsRecursive(ctx, path.Join(fullPath, name), itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}

// FetchDoc downloads one file. Files too large for the contents API are
// fetched through their download URL.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*indexer.SourceDoc, error) {
	fullPath := path.Join(f.basePath, relativePath)

	// Get file metadata and inline content
	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	// Decode base64 content, or download when the API omits it
	var data []byte
	if fileContent.Content != nil {
		content, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decode content of %s: %w", fullPath, err)
		}
		data = []byte(content)
	} else {
		data, err = f.download(ctx, fullPath)
		if err != nil {
			return nil, err
		}
	}

	// Link back to the file on GitHub
	sourceURL := fileContent.GetHTMLURL()
	if sourceURL == "" {
		sourceURL = fmt.Sprintf("https://github.com/%s/%s/blob/HEAD/%s", f.owner, f.repo, fullPath)
	}

	return &indexer.SourceDoc{
		Path: relativePath,
		URL:  sourceURL,
		Data: data,
	}, nil
}

func (f *Fetcher) download(ctx context.Context, fullPath string) ([]byte, error) {
	rc, _, err := f.client.Repositories.DownloadContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fullPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fullPath, err)
	}
	return data, nil
}

// Revision returns the SHA of the most recent commit touching the base path.
func (f *Fetcher) Revision(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(ctx, f.owner, f.repo, &github.CommitsListOptions{
		Path:        f.basePath,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("get latest commit: %w", err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", f.basePath)
	}

	sha := commits[0].GetSHA()
	if sha == "" {
		return "", errors.New("commit SHA is empty")
	}
	return sha, nil
}
