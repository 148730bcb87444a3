// Package indexserver serves a directory of distribution files as a PEP 503
// simple index.
//
// Layout:
//
//	GET /simple/            project list
//	GET /simple/{project}/  files of one project (HTML, or PEP 691 JSON on request)
//	GET /files/{file}       the file itself, with HEAD and Range support
//
// The directory is re-read on every request, so files dropped into it are
// visible immediately. Project names are taken from the first dash-separated
// segment of each filename and normalized per PEP 503; a request for a
// non-normalized project name is redirected.
package indexserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/simpleindex"
)

const jsonContentType = "application/vnd.pypi.simple.v1+json"

var extensions = []string{".whl", ".zip", ".tar.gz"}

// Options configures a Server.
type Options struct {
	Logger func(string, ...any) // Request log (optional)
}

// Server serves one directory.
type Server struct {
	dir    string
	logger func(string, ...any)
	router chi.Router
}

// New creates a Server for dir.
func New(dir string, opts Options) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "wheel directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errs.New(errs.ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	s := &Server{dir: dir, logger: opts.Logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/simple/", http.StatusFound)
	})
	r.Get("/simple/", s.handleRoot)
	r.Get("/simple/{project}/", s.handleProject)
	r.Get("/simple/{project}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
	})
	r.Get("/files/{file}", s.handleFile)
	r.Head("/files/{file}", s.handleFile)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(errs.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Projects maps normalized project names to their sorted filenames.
func (s *Server) Projects() (map[string][]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", s.dir)
	}
	projects := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() || !isDistribution(e.Name()) {
			continue
		}
		name, _, _ := strings.Cut(e.Name(), "-")
		key := simpleindex.NormalizeName(name)
		projects[key] = append(projects[key], e.Name())
	}
	for _, files := range projects {
		sort.Strings(files)
	}
	return projects, nil
}

func isDistribution(name string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) && strings.Contains(name, "-") {
			return true
		}
	}
	return false
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	projects, err := s.Projects()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)

	if wantsJSON(r) {
		type project struct {
			Name string `json:"name"`
		}
		list := make([]project, len(names))
		for i, n := range names {
			list[i] = project{Name: n}
		}
		writeJSON(w, map[string]any{"meta": meta(), "projects": list})
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Simple index</title></head><body>\n")
	for _, n := range names {
		fmt.Fprintf(&b, "<a href=\"%s/\">%s</a><br/>\n", url.PathEscape(n), html.EscapeString(n))
	}
	b.WriteString("</body></html>\n")
	writeHTML(w, b.String())
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	requested := chi.URLParam(r, "project")
	name := simpleindex.NormalizeName(requested)
	if name != requested {
		http.Redirect(w, r, "/simple/"+url.PathEscape(name)+"/", http.StatusMovedPermanently)
		return
	}
	projects, err := s.Projects()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	files, ok := projects[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	if wantsJSON(r) {
		type file struct {
			Filename string            `json:"filename"`
			URL      string            `json:"url"`
			Hashes   map[string]string `json:"hashes"`
		}
		list := make([]file, len(files))
		for i, f := range files {
			list[i] = file{Filename: f, URL: fileURL(f), Hashes: map[string]string{}}
		}
		writeJSON(w, map[string]any{"meta": meta(), "name": name, "files": list})
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html><head><title>Links for %s</title></head><body>\n<h1>Links for %s</h1>\n",
		html.EscapeString(name), html.EscapeString(name))
	for _, f := range files {
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a><br/>\n", fileURL(f), html.EscapeString(f))
	}
	b.WriteString("</body></html>\n")
	writeHTML(w, b.String())
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !isDistribution(name) {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger("%s %s %d %s range=%q", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond), r.Header.Get("Range"))
	})
}

func fileURL(name string) string {
	return "../../files/" + url.PathEscape(name)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), jsonContentType)
}

func meta() map[string]string {
	return map[string]string{"api-version": "1.0"}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	_ = json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
