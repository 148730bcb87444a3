package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolveHooks{}
	r.OnResolveStart(ctx, []string{"requests"})
	r.OnPackageStart(ctx, "requests")
	r.OnPackageResolved(ctx, "requests", "2.31.0", "https://files/requests.whl", time.Second)
	r.OnResolveComplete(ctx, 5, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "index")
	c.OnCacheMiss(ctx, "metadata")
	c.OnCacheSet(ctx, "metadata", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "pypi.org", "/simple/requests/")
	h.OnResponse(ctx, "GET", "pypi.org", "/simple/requests/", 200, time.Second)
	h.OnError(ctx, "HEAD", "files.pythonhosted.org", "/packages/x.whl", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Resolve() should return NoopResolveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	if Resolve() != customResolve {
		t.Error("SetResolveHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Resolve().(NoopResolveHooks); !ok {
		t.Error("Reset() should restore NoopResolveHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testResolveHooks{}
	SetResolveHooks(custom)
	SetResolveHooks(nil)
	if Resolve() != custom {
		t.Error("SetResolveHooks(nil) should keep existing hooks")
	}
}

func TestCustomResolveHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testResolveHooks{}
	SetResolveHooks(h)

	ctx := context.Background()
	Resolve().OnPackageStart(ctx, "foo")
	Resolve().OnPackageResolved(ctx, "foo", "1.0", "u", 0)

	if len(h.started) != 1 || h.started[0] != "foo" {
		t.Errorf("started = %v, want [foo]", h.started)
	}
	if h.resolved != 1 {
		t.Errorf("resolved = %d, want 1", h.resolved)
	}
}

type testResolveHooks struct {
	NoopResolveHooks
	started  []string
	resolved int
}

func (h *testResolveHooks) OnPackageStart(_ context.Context, name string) {
	h.started = append(h.started, name)
}

func (h *testResolveHooks) OnPackageResolved(context.Context, string, string, string, time.Duration) {
	h.resolved++
}

type testCacheHooks struct{ NoopCacheHooks }

type testHTTPHooks struct{ NoopHTTPHooks }
