package resolver

import "strings"

// Header is one METADATA field. Keys are lowercased.
type Header struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Metadata is the header block of a METADATA file in file order. Fields
// such as requires-dist may repeat.
type Metadata []Header

// ParseMetadata reads the RFC 822 style header block that precedes the first
// blank line. Each line is split at its first colon; indented lines continue
// the previous value.
func ParseMetadata(text string) Metadata {
	var m Metadata
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		if (line[0] == ' ' || line[0] == '\t') && len(m) > 0 {
			m[len(m)-1].Value += "\n" + strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		m = append(m, Header{
			Key:   strings.ToLower(strings.TrimSpace(key)),
			Value: strings.TrimSpace(value),
		})
	}
	return m
}

// Get returns the first value for key.
func (m Metadata) Get(key string) string {
	key = strings.ToLower(key)
	for _, h := range m {
		if h.Key == key {
			return h.Value
		}
	}
	return ""
}

// Values returns every value for key in file order.
func (m Metadata) Values(key string) []string {
	key = strings.ToLower(key)
	var out []string
	for _, h := range m {
		if h.Key == key {
			out = append(out, h.Value)
		}
	}
	return out
}

// RequiresDist returns the requires-dist specifiers.
func (m Metadata) RequiresDist() []string {
	return m.Values("requires-dist")
}
