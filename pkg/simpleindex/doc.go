// Package simpleindex reads PEP 503 "simple" package index pages.
//
// An index page is a list of anchors. On a per-project page
// (`{index}/{project}/`) each anchor names one distribution file; on the
// root page (`{index}/`) each anchor names a project and points at its
// per-project page. [Client.Links] returns the anchors of either kind as
// [Link] values with absolute URLs.
//
// Servers implementing PEP 691 are asked for JSON first; the HTML form is
// the fallback and the only one PEP 503 requires. Both forms yield the same
// links.
//
// [Directory] holds project-name to page-URL mappings loaded from extra
// indexes, consulted before the default index when looking a project up.
package simpleindex
