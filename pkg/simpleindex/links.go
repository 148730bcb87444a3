package simpleindex

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// Link is one anchor of an index page.
type Link struct {
	Label          string `json:"label" yaml:"label"`                                         // Visible text: a filename or project name
	URL            string `json:"url" yaml:"url"`                                             // Absolute URL
	Yanked         bool   `json:"yanked,omitempty" yaml:"yanked,omitempty"`                   // data-yanked present (PEP 592)
	RequiresPython string `json:"requires_python,omitempty" yaml:"requires_python,omitempty"` // data-requires-python (PEP 503)
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the PEP 503 normalized form of a project name:
// lowercase, with runs of '-', '_' and '.' collapsed to a single '-'.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(strings.TrimSpace(name), "-"))
}

// ProjectURL returns the per-project page of name under index.
func ProjectURL(index, name string) string {
	return strings.TrimRight(index, "/") + "/" + NormalizeName(name) + "/"
}

// ParseHTML extracts the anchors of an HTML index page. Relative hrefs are
// resolved against pageURL, or against the page's <base href> when present.
// Anchors without an href or with empty text are skipped.
func ParseHTML(pageURL string, body []byte) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid page URL %q", pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse index page %s", pageURL)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	var links []Link
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		label := strings.TrimSpace(s.Text())
		if !ok || label == "" {
			return
		}
		u, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		_, yanked := s.Attr("data-yanked")
		requires, _ := s.Attr("data-requires-python")
		links = append(links, Link{
			Label:          label,
			URL:            u.String(),
			Yanked:         yanked,
			RequiresPython: requires,
		})
	})
	return links, nil
}

// ParseJSON extracts links from a PEP 691 JSON page. Project pages list
// `files`; the root page lists `projects`, whose URLs are derived from
// their names.
func ParseJSON(pageURL string, body []byte) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid page URL %q", pageURL)
	}
	if !gjson.ValidBytes(body) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "invalid JSON index page %s", pageURL)
	}
	doc := gjson.ParseBytes(body)

	var links []Link
	doc.Get("files").ForEach(func(_, file gjson.Result) bool {
		label := strings.TrimSpace(file.Get("filename").String())
		href := file.Get("url").String()
		if label == "" || href == "" {
			return true
		}
		u, err := base.Parse(href)
		if err != nil {
			return true
		}
		yanked := file.Get("yanked")
		links = append(links, Link{
			Label:          label,
			URL:            u.String(),
			Yanked:         yanked.Type == gjson.True || (yanked.Type == gjson.String && yanked.Str != ""),
			RequiresPython: file.Get("requires-python").String(),
		})
		return true
	})
	doc.Get("projects").ForEach(func(_, project gjson.Result) bool {
		name := strings.TrimSpace(project.Get("name").String())
		if name == "" {
			return true
		}
		u, err := base.Parse(NormalizeName(name) + "/")
		if err != nil {
			return true
		}
		links = append(links, Link{Label: name, URL: u.String()})
		return true
	})
	return links, nil
}
