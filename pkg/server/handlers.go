package server

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	clientdist "github.com/vango-dev/kinesis/client/dist"
	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/snapshot"
)

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
</head>
<body>
<div id="kinesis-root" data-socket="{{.Socket}}"></div>
<script src="/client.js"></script>
</body>
</html>
`))

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := page.Execute(w, struct{ Name, Socket string }{s.name, s.cfg.SocketPath})
	if err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

var clientETag = func() string {
	sum := sha256.Sum256(clientdist.KinesisJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:8]))
}()

func (s *Server) serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", clientETag)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	if etagMatches(r.Header.Get("If-None-Match"), clientETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Write(clientdist.KinesisJS)
}

func etagMatches(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		candidate := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

func (s *Server) serveRender(w http.ResponseWriter, r *http.Request) {
	html, err := snapshot.RenderWith(r.Context(), s.app, s.ctrlOpts)
	if err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// publishRequest is the body of POST /snapshots. An empty body publishes the
// initial tree.
type publishRequest struct {
	Steps []snapshot.Step `json:"steps"`
}

type publishResponse struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (s *Server) publishSnapshot(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	snap, loc, err := snapshot.Publish(r.Context(), s.snapshots, s.name, s.app, req.Steps...)
	if err != nil {
		s.logger.Error("snapshot publish failed", "error", err)
		status := http.StatusInternalServerError
		if !errors.HasCode(err, errors.CodeSnapshotStore) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.logger.Info("snapshot published", "name", snap.Name, "location", loc)
	writeJSON(w, http.StatusCreated, publishResponse{Name: snap.Name, Location: loc})
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Load(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.HasCode(err, errors.CodeSnapshotName), errors.HasCode(err, errors.CodeSnapshotNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("snapshot load failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(snap.HTML)
}
