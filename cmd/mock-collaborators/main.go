// Package main implements mock diagram collaborators for e2e testing.
// It answers the three NATS request/reply subjects the diagram backend
// depends on: the layout engine, the model computer, and the document
// parser. This eliminates the need for a real ELK engine and ontology
// toolchain during wiring tests, making them fast, deterministic, and
// offline-capable.
//
// Usage:
//
//	mock-collaborators -nats nats://localhost:4222 -fixtures ./fixtures
//
// Model fixtures are JSON semantic models named by document basename
// (e.g., "mission.oml.json" answers compute requests for any URI ending
// in "mission.oml"). Unknown documents get an empty model. Layout
// requests are answered with a deterministic grid, not a real layout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/c360studio/ontoview/diagram"
	"github.com/c360studio/ontoview/document"
	"github.com/c360studio/ontoview/layout"
	"github.com/c360studio/ontoview/service"
	"github.com/nats-io/nats.go"
)

func main() {
	natsURL := flag.String("nats", nats.DefaultURL, "NATS server URL")
	fixtures := flag.String("fixtures", "", "Directory of JSON semantic model fixtures")
	flag.Parse()

	conn, err := nats.Connect(*natsURL, nats.Name("mock-collaborators"))
	if err != nil {
		log.Fatalf("connect to NATS: %v", err)
	}
	defer conn.Close()

	s := &server{fixtures: *fixtures}

	subs := map[string]nats.MsgHandler{
		"diagram.layout.request": s.handleLayout,
		service.ComputeSubject:   s.handleCompute,
		document.ParseSubject:    s.handleParse,
	}
	for subject, handler := range subs {
		if _, err := conn.Subscribe(subject, handler); err != nil {
			log.Fatalf("subscribe %s: %v", subject, err)
		}
		log.Printf("serving %s", subject)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")
}

type server struct {
	fixtures string
}

func (s *server) reply(msg *nats.Msg, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshal reply: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("respond: %v", err)
	}
}

// handleLayout answers with a grid: nodes placed left to right in rows of
// four, edges routed center to center. Deterministic, not pretty.
func (s *server) handleLayout(msg *nats.Msg) {
	var req layout.ELKGraph
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("bad layout request: %v", err)
		return
	}

	const cell = 220.0
	centers := make(map[string]layout.ELKPoint, len(req.Children))
	res := layout.ELKGraph{ID: req.ID}
	for i, n := range req.Children {
		placed := &layout.ELKNode{
			ID:     n.ID,
			X:      float64(i%4) * cell,
			Y:      float64(i/4) * cell,
			Width:  n.Width,
			Height: n.Height,
		}
		centers[n.ID] = layout.ELKPoint{
			X: placed.X + placed.Width/2,
			Y: placed.Y + placed.Height/2,
		}
		res.Children = append(res.Children, placed)
	}
	for _, e := range req.Edges {
		routed := &layout.ELKEdge{ID: e.ID}
		if len(e.Sources) > 0 && len(e.Targets) > 0 {
			start, end := centers[e.Sources[0]], centers[e.Targets[0]]
			routed.Sections = []layout.ELKEdgeSection{{Start: start, End: end}}
			for _, l := range e.Labels {
				routed.Labels = append(routed.Labels, &layout.ELKLabel{
					Text: l.Text,
					X:    (start.X + end.X) / 2,
					Y:    (start.Y + end.Y) / 2,
				})
			}
		}
		res.Edges = append(res.Edges, routed)
	}
	s.reply(msg, &res)
}

// handleCompute answers from the fixture matching the document basename,
// or an empty model.
func (s *server) handleCompute(msg *nats.Msg) {
	var req struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("bad compute request: %v", err)
		return
	}

	model := &diagram.SemanticModel{URI: req.URI}
	if s.fixtures != "" {
		path := filepath.Join(s.fixtures, filepath.Base(req.URI)+".json")
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, model); err != nil {
				s.reply(msg, map[string]string{"error": fmt.Sprintf("bad fixture %s: %v", path, err)})
				return
			}
			model.URI = req.URI
			log.Printf("compute %s from fixture %s", req.URI, path)
		}
	}
	s.reply(msg, map[string]any{"model": model})
}

// handleParse answers with a naively scanned document: every line of the
// form "<keyword> <name>" becomes a statement spanning that line. Good
// enough to exercise navigation end to end.
func (s *server) handleParse(msg *nats.Msg) {
	var req struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("bad parse request: %v", err)
		return
	}

	doc := &document.Document{URI: req.URI, Text: req.Text}
	offset := 0
	for _, line := range strings.Split(req.Text, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			switch fields[0] {
			case "concept", "aspect", "relation", "scalar", "instance":
				doc.Statements = append(doc.Statements, document.Statement{
					Name:  fields[1],
					Start: offset,
					End:   offset + len(line),
				})
			case "vocabulary", "description":
				doc.Namespace = strings.Trim(fields[1], "<>")
			case "extends", "uses":
				imp := document.Import{URI: strings.Trim(fields[1], "<>")}
				if len(fields) >= 4 && fields[2] == "as" {
					imp.Prefix = fields[3]
				}
				doc.Imports = append(doc.Imports, imp)
			}
		}
		offset += len(line) + 1
	}
	s.reply(msg, map[string]any{"document": doc})
}
