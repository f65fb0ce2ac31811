package references

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/jsonpointer"
	"github.com/stretchr/testify/require"
)

// MockVirtualFS implements system.VirtualFS for testing
type MockVirtualFS struct {
	mu     sync.Mutex
	files  map[string]string
	opened map[string]int
}

func NewMockVirtualFS() *MockVirtualFS {
	return &MockVirtualFS{
		files:  make(map[string]string),
		opened: make(map[string]int),
	}
}

func (m *MockVirtualFS) AddFile(path, content string) {
	m.files[filepath.ToSlash(path)] = content
}

func (m *MockVirtualFS) Open(name string) (fs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalizedName := filepath.ToSlash(name)
	m.opened[normalizedName]++

	content, exists := m.files[normalizedName]
	if !exists {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	return &MockFile{content: content}, nil
}

func (m *MockVirtualFS) OpenCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.opened[name]
}

// MockFile implements fs.File for testing
type MockFile struct {
	content string
	pos     int
}

func (m *MockFile) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.content) {
		return 0, io.EOF
	}
	n = copy(p, m.content[m.pos:])
	m.pos += n
	return n, nil
}

func (m *MockFile) Close() error {
	return nil
}

func (m *MockFile) Stat() (fs.FileInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

// MockHTTPClient implements system.Client for testing
type MockHTTPClient struct {
	bodies   map[string]string
	statuses map[string]int
	errors   map[string]error
}

func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		bodies:   make(map[string]string),
		statuses: make(map[string]int),
		errors:   make(map[string]error),
	}
}

func (m *MockHTTPClient) AddResponse(url, body string, statusCode int) {
	m.bodies[url] = body
	m.statuses[url] = statusCode
}

func (m *MockHTTPClient) AddError(url string, err error) {
	m.errors[url] = err
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	if err, exists := m.errors[url]; exists {
		return nil, err
	}
	if body, exists := m.bodies[url]; exists {
		return &http.Response{
			StatusCode: m.statuses[url],
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	}
	return nil, fmt.Errorf("no response configured for URL: %s", url)
}

func decode(t *testing.T, src string) any {
	t.Helper()

	doc, err := document.Decode([]byte(src))
	require.NoError(t, err)
	return doc
}

func hydrateDocument(t *testing.T, src string) any {
	t.Helper()

	root, err := HydrateDocument(decode(t, src))
	require.NoError(t, err)
	return root
}

func target(t *testing.T, root any, pointer jsonpointer.JSONPointer) any {
	t.Helper()

	v, err := jsonpointer.GetTarget(root, pointer)
	require.NoError(t, err)
	return v
}

func referenceAt(t *testing.T, root any, pointer jsonpointer.JSONPointer) *Reference {
	t.Helper()

	ref, ok := target(t, root, pointer).(*Reference)
	require.True(t, ok, "expected a reference at %s", pointer)
	return ref
}
