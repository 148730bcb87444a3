package resolver

import (
	"reflect"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	text := "Metadata-Version: 2.1\r\n" +
		"Name: demo\n" +
		"Summary: a: b\n" +
		"Description: first\n" +
		"  second\n" +
		"\tthird\n" +
		"Requires-Dist: bar>=1.0\n" +
		"not a header\n" +
		"Requires-Dist: baz; extra == \"fast\"\n" +
		"\n" +
		"Requires-Dist: body-text\n"

	m := ParseMetadata(text)
	if got := m.Get("NAME"); got != "demo" {
		t.Errorf("Get(NAME) = %q", got)
	}
	if got := m.Get("summary"); got != "a: b" {
		t.Errorf("summary = %q, want split at first colon", got)
	}
	if got := m.Get("description"); got != "first\nsecond\nthird" {
		t.Errorf("description = %q", got)
	}
	want := []string{"bar>=1.0", `baz; extra == "fast"`}
	if got := m.RequiresDist(); !reflect.DeepEqual(got, want) {
		t.Errorf("RequiresDist() = %q, want %q", got, want)
	}
	if got := m.Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q", got)
	}
}

func TestParseMetadataEmpty(t *testing.T) {
	if m := ParseMetadata(""); len(m) != 0 {
		t.Errorf("ParseMetadata(\"\") = %v", m)
	}
	if m := ParseMetadata("\nName: x\n"); len(m) != 0 {
		t.Errorf("leading blank line should end the header block, got %v", m)
	}
}

func TestQueueMergesPending(t *testing.T) {
	q := newQueue()
	q.push("a", nil, []string{"x"})
	q.push("b", nil, nil)
	q.push("a", nil, []string{"x", "y"})
	if q.len() != 2 {
		t.Fatalf("len = %d, want 2", q.len())
	}
	it := q.pop()
	if it.name != "a" || !reflect.DeepEqual(it.extras, []string{"x", "y"}) {
		t.Errorf("pop = %+v", it)
	}
	q.push("a", nil, nil)
	if q.len() != 1 || !q.isDone("a") {
		t.Errorf("done names must not be queued again")
	}
}
