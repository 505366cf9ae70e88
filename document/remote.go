package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ParseSubject is the request/reply subject of the external parser
// collaborator ("get or parse document by URI").
const ParseSubject = "document.parse.request"

type parseRequest struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

type parseResponse struct {
	Document *Document `json:"document,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// RemoteProvider obtains parsed documents from the external parser over
// NATS, reading source text through the configured filesystem so it works
// with and without direct disk access. Parsed documents are cached until
// Invalidate; the watcher invalidates on every change.
type RemoteProvider struct {
	conn    *nats.Conn
	fs      FileSystem
	timeout time.Duration

	mu    sync.RWMutex
	cache map[string]*Document
}

// NewRemoteProvider creates a provider backed by the parser collaborator.
func NewRemoteProvider(conn *nats.Conn, fs FileSystem, timeout time.Duration) *RemoteProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteProvider{
		conn:    conn,
		fs:      fs,
		timeout: timeout,
		cache:   make(map[string]*Document),
	}
}

// Document returns the parsed document for the URI.
func (p *RemoteProvider) Document(ctx context.Context, uri string) (*Document, error) {
	p.mu.RLock()
	doc := p.cache[uri]
	p.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}

	text, err := p.fs.ReadFile(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}

	data, err := json.Marshal(parseRequest{URI: uri, Text: string(text)})
	if err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg, err := p.conn.RequestWithContext(reqCtx, ParseSubject, data)
	if err != nil {
		return nil, fmt.Errorf("parse request for %s: %w", uri, err)
	}

	var res parseResponse
	if err := json.Unmarshal(msg.Data, &res); err != nil {
		return nil, fmt.Errorf("decode parse response: %w", err)
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	if res.Document == nil {
		return nil, fmt.Errorf("parser returned no document for %s", uri)
	}

	p.mu.Lock()
	p.cache[uri] = res.Document
	p.mu.Unlock()
	return res.Document, nil
}

// Invalidate drops the cached document for a URI after an edit or save.
func (p *RemoteProvider) Invalidate(uri string) {
	p.mu.Lock()
	delete(p.cache, uri)
	p.mu.Unlock()
}
