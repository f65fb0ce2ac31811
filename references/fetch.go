package references

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/internal/utils"
	"github.com/speakeasy-api/openapi-refs/system"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxDocumentSize is the largest document the default fetcher loads.
const DefaultMaxDocumentSize = 10 << 20

// Fetcher loads the decoded document tree found at an absolute location.
type Fetcher interface {
	FetchDocument(ctx context.Context, uri string) (any, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, uri string) (any, error)

func (f FetcherFunc) FetchDocument(ctx context.Context, uri string) (any, error) {
	return f(ctx, uri)
}

// DefaultFetcher loads file paths through a VirtualFS and http(s) URLs through a Client.
// Decoded documents are cached per location and concurrent loads of one location are shared.
type DefaultFetcher struct {
	fs      system.VirtualFS
	client  system.Client
	maxSize int64

	group singleflight.Group

	mu   sync.RWMutex
	docs map[string]any
}

var _ Fetcher = (*DefaultFetcher)(nil)

// FetcherOption configures a DefaultFetcher.
type FetcherOption func(f *DefaultFetcher)

// WithVirtualFS sets the file system file paths are read from, the local disk by default.
func WithVirtualFS(fs system.VirtualFS) FetcherOption {
	return func(f *DefaultFetcher) {
		f.fs = fs
	}
}

// WithHTTPClient sets the client URLs are loaded with, http.DefaultClient by default.
func WithHTTPClient(client system.Client) FetcherOption {
	return func(f *DefaultFetcher) {
		f.client = client
	}
}

// WithMaxDocumentSize limits the size in bytes of a loaded document.
func WithMaxDocumentSize(size int64) FetcherOption {
	return func(f *DefaultFetcher) {
		f.maxSize = size
	}
}

// NewFetcher creates a DefaultFetcher.
func NewFetcher(opts ...FetcherOption) *DefaultFetcher {
	f := &DefaultFetcher{
		fs:      &system.FileSystem{},
		client:  http.DefaultClient,
		maxSize: DefaultMaxDocumentSize,
		docs:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchDocument returns the decoded document at uri. The fragment of uri is ignored.
// The returned tree is shared between callers and must not be modified.
func (f *DefaultFetcher) FetchDocument(ctx context.Context, uri string) (any, error) {
	uri, _ = utils.SplitFragment(uri)
	if uri == "" {
		return nil, fmt.Errorf("no document location given")
	}

	f.mu.RLock()
	doc, ok := f.docs[uri]
	f.mu.RUnlock()
	if ok {
		return doc, nil
	}

	// shared by every caller of uri, the load outlives the caller that started it
	loadCtx := context.WithoutCancel(ctx)

	ch := f.group.DoChan(uri, func() (any, error) {
		f.mu.RLock()
		doc, ok := f.docs[uri]
		f.mu.RUnlock()
		if ok {
			return doc, nil
		}

		data, err := f.load(loadCtx, uri)
		if err != nil {
			return nil, err
		}

		doc, err = document.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", uri, err)
		}

		f.mu.Lock()
		f.docs[uri] = doc
		f.mu.Unlock()

		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

// Clear drops the cached documents.
func (f *DefaultFetcher) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.docs = make(map[string]any)
}

func (f *DefaultFetcher) load(ctx context.Context, uri string) ([]byte, error) {
	classification, err := utils.ClassifyReference(uri)
	if err != nil {
		return nil, err
	}

	switch classification.Type {
	case utils.ReferenceTypeURL:
		switch classification.ParsedURL.Scheme {
		case "http", "https":
			return f.loadURL(ctx, uri)
		case "file":
			return f.loadFile(classification.ParsedURL.Path)
		default:
			return nil, fmt.Errorf("unsupported URL scheme %q", classification.ParsedURL.Scheme)
		}
	case utils.ReferenceTypeFilePath:
		return f.loadFile(uri)
	default:
		return nil, fmt.Errorf("unsupported document location %q", uri)
	}
}

func (f *DefaultFetcher) loadURL(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("no response for %s", uri)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP request failed with status %d", resp.StatusCode)
	}

	return f.read(resp.Body, uri)
}

func (f *DefaultFetcher) loadFile(path string) ([]byte, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return f.read(file, path)
}

func (f *DefaultFetcher) read(r io.Reader, uri string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("document %s exceeds maximum size of %d bytes", uri, f.maxSize)
	}
	return data, nil
}
