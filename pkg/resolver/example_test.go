package resolver_test

import (
	"archive/zip"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/matzehuels/pyboot/pkg/indexserver"
	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/resolver"
)

func writeExampleWheel(dir, name, version, requires string) {
	f, _ := os.Create(filepath.Join(dir, name+"-"+version+"-py3-none-any.whl"))
	defer f.Close()
	zw := zip.NewWriter(f)
	w, _ := zw.Create(name + "-" + version + ".dist-info/METADATA")
	fmt.Fprintf(w, "Name: %s\nVersion: %s\n", name, version)
	if requires != "" {
		fmt.Fprintf(w, "Requires-Dist: %s\n", requires)
	}
	zw.Close()
}

func ExampleResolver_BuildDownloadList() {
	dir, _ := os.MkdirTemp("", "wheels")
	defer os.RemoveAll(dir)
	writeExampleWheel(dir, "web", "1.0", `win_helper; sys_platform == "win32"`)
	writeExampleWheel(dir, "web", "2.0", "router>=1")
	writeExampleWheel(dir, "router", "1.4", "")
	writeExampleWheel(dir, "win_helper", "1.0", "")

	s, _ := indexserver.New(dir, indexserver.Options{})
	srv := httptest.NewServer(s)
	defer srv.Close()

	r, _ := resolver.New(resolver.Options{
		Index: srv.URL + "/simple",
		Env:   pep508.Env{"sys_platform": pep508.String("linux")},
	})
	plan, err := r.BuildDownloadList(context.Background(), []string{"web<2"})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range plan.Packages {
		fmt.Println(p.Name, p.Version)
	}

	plan, _ = r.BuildDownloadList(context.Background(), []string{"web"})
	for _, p := range plan.Packages {
		fmt.Println(p.Name, p.Version)
	}
	// Output:
	// web 1.0
	// web 2.0
	// router 1.4
}
