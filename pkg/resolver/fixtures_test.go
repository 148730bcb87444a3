package resolver

import (
	"archive/zip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/pyboot/pkg/indexserver"
	"github.com/matzehuels/pyboot/pkg/pep508"
)

// wheel describes a synthetic distribution for the test index.
type wheel struct {
	name       string
	version    string
	tags       string // default py3-none-any
	requires   []string
	noMetadata bool
}

func (w wheel) filename() string {
	tags := w.tags
	if tags == "" {
		tags = "py3-none-any"
	}
	return fmt.Sprintf("%s-%s-%s.whl", w.name, w.version, tags)
}

func (w wheel) metadata() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Metadata-Version: 2.1\nName: %s\nVersion: %s\n", w.name, w.version)
	for _, r := range w.requires {
		fmt.Fprintf(&b, "Requires-Dist: %s\n", r)
	}
	b.WriteString("\nThis is the long description.\nRequires-Dist: not-a-header\n")
	return b.String()
}

func writeWheel(t *testing.T, dir string, w wheel) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, w.filename()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	members := map[string]string{
		w.name + "/__init__.py": "",
	}
	if !w.noMetadata {
		members[fmt.Sprintf("%s-%s.dist-info/METADATA", w.name, w.version)] = w.metadata()
		members[fmt.Sprintf("%s-%s.dist-info/WHEEL", w.name, w.version)] = "Wheel-Version: 1.0\n"
	}
	for name, body := range members {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// testIndex serves wheels through indexserver and counts full and ranged
// file fetches.
type testIndex struct {
	URL       string // index base, e.g. http://127.0.0.1:1234/simple
	fileReads int32
	pageReads int32
}

func newTestIndex(t *testing.T, wheels ...wheel) *testIndex {
	t.Helper()
	dir := t.TempDir()
	for _, w := range wheels {
		writeWheel(t, dir, w)
	}
	s, err := indexserver.New(dir, indexserver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	ti := &testIndex{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/files/") && r.Method == http.MethodGet:
			atomic.AddInt32(&ti.fileReads, 1)
		case strings.HasPrefix(r.URL.Path, "/simple/"):
			atomic.AddInt32(&ti.pageReads, 1)
		}
		s.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	ti.URL = srv.URL + "/simple"
	return ti
}

func (ti *testIndex) fileURL(w wheel) string {
	return strings.TrimSuffix(ti.URL, "/simple") + "/files/" + w.filename()
}

var darwin = pep508.Env{
	"sys_platform":   pep508.String("darwin"),
	"os_name":        pep508.String("posix"),
	"python_version": pep508.Semver("3.11"),
}

var linux = pep508.Env{
	"sys_platform":   pep508.String("linux"),
	"os_name":        pep508.String("posix"),
	"python_version": pep508.Semver("3.11"),
}

func newTestResolver(t *testing.T, index string, opts Options) *Resolver {
	t.Helper()
	opts.Index = index
	if opts.Env == nil {
		opts.Env = darwin
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}
