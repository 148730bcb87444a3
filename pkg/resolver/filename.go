package resolver

import "strings"

// Filename is a parsed distribution filename of the form
// name-version[-tag...].ext, where each tag segment may hold several
// dot-separated tags.
type Filename struct {
	Name    string
	Version string
	Tags    []string
	Ext     string
}

// ParseFilename splits a distribution filename. Only .whl and .zip files
// are accepted; anything else, including .tar.gz sdists, reports false.
func ParseFilename(label string) (Filename, bool) {
	i := strings.LastIndexByte(label, '.')
	if i < 0 {
		return Filename{}, false
	}
	ext := label[i+1:]
	if ext != "whl" && ext != "zip" {
		return Filename{}, false
	}
	parts := strings.Split(label[:i], "-")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Filename{}, false
	}
	var tags []string
	for _, seg := range parts[2:] {
		for _, tag := range strings.Split(seg, ".") {
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return Filename{Name: parts[0], Version: parts[1], Tags: tags, Ext: ext}, true
}

// HasAnyTag reports whether any of f's tags is in accepted.
func (f Filename) HasAnyTag(accepted map[string]bool) bool {
	for _, t := range f.Tags {
		if accepted[t] {
			return true
		}
	}
	return false
}
