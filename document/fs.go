package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// EntryType distinguishes files from directories in listings and stats.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// Entry is one result of a directory listing.
type Entry struct {
	URI  string    `json:"uri"`
	Type EntryType `json:"type"`
}

// FileSystem is the document loader's storage abstraction. It works
// identically over direct disk access and over the host's filesystem proxy
// protocol, so the loader does not care which environment it runs in.
type FileSystem interface {
	ReadFile(ctx context.Context, uri string) ([]byte, error)
	Stat(ctx context.Context, uri string) (EntryType, error)
	ReadDir(ctx context.Context, uri string) ([]Entry, error)
}

// OSFS reads file:// URIs straight from disk.
type OSFS struct{}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("parse uri %q: %w", uri, err)
		}
		return u.Path, nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// ReadFile reads the file backing the URI.
func (OSFS) ReadFile(_ context.Context, uri string) ([]byte, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Stat reports whether the URI is a file or a directory.
func (OSFS) Stat(_ context.Context, uri string) (EntryType, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return EntryDirectory, nil
	}
	return EntryFile, nil
}

// ReadDir lists the directory backing the URI.
func (OSFS) ReadDir(_ context.Context, uri string) ([]Entry, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		t := EntryFile
		if e.IsDir() {
			t = EntryDirectory
		}
		out = append(out, Entry{URI: pathToURI(filepath.Join(path, e.Name())), Type: t})
	}
	return out, nil
}

// Filesystem proxy subjects, used in restricted execution environments
// where the backend has no direct disk access and the host answers on its
// behalf.
const (
	FSReadSubject    = "fs.read"
	FSStatSubject    = "fs.stat"
	FSReadDirSubject = "fs.readdir"
)

type fsRequest struct {
	URI string `json:"uri"`
}

type fsReadResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

type fsStatResponse struct {
	Type  EntryType `json:"type"`
	Error string    `json:"error,omitempty"`
}

type fsReadDirResponse struct {
	Entries []Entry `json:"entries"`
	Error   string  `json:"error,omitempty"`
}

// ProxyFS satisfies FileSystem over the host's three-request proxy
// protocol: read-file-as-text, stat, and read-directory.
type ProxyFS struct {
	conn    *nats.Conn
	timeout time.Duration
}

// NewProxyFS creates a proxy-backed filesystem.
func NewProxyFS(conn *nats.Conn, timeout time.Duration) *ProxyFS {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProxyFS{conn: conn, timeout: timeout}
}

func (p *ProxyFS) request(ctx context.Context, subject, uri string, out any) error {
	data, err := json.Marshal(fsRequest{URI: uri})
	if err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg, err := p.conn.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return fmt.Errorf("%s %s: %w", subject, uri, err)
	}
	return json.Unmarshal(msg.Data, out)
}

// ReadFile reads the URI as text through the proxy.
func (p *ProxyFS) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	var res fsReadResponse
	if err := p.request(ctx, FSReadSubject, uri, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return []byte(res.Text), nil
}

// Stat stats the URI through the proxy.
func (p *ProxyFS) Stat(ctx context.Context, uri string) (EntryType, error) {
	var res fsStatResponse
	if err := p.request(ctx, FSStatSubject, uri, &res); err != nil {
		return "", err
	}
	if res.Error != "" {
		return "", errors.New(res.Error)
	}
	return res.Type, nil
}

// ReadDir lists the URI through the proxy.
func (p *ProxyFS) ReadDir(ctx context.Context, uri string) ([]Entry, error) {
	var res fsReadDirResponse
	if err := p.request(ctx, FSReadDirSubject, uri, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return res.Entries, nil
}
