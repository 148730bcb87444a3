// Package zipremote reads individual members out of remote ZIP and ZIP64
// archives using byte-range requests only.
//
// Opening an archive costs three small requests: a size probe, a fetch of
// the trailing window that holds the End-Of-Central-Directory record, and a
// fetch of the central directory itself. Reading a member costs two more:
// a probe of its local header and a fetch of its compressed payload. For a
// wheel this means a few kilobytes of traffic to read its METADATA file,
// independent of the wheel's size.
//
//	src, _ := opener.Source("https://files.example/pkg-1.0-py3-none-any.whl")
//	a, err := zipremote.Open(ctx, src, zipremote.Options{})
//	if err != nil { ... }
//	text, err := a.ReadMember(ctx, "pkg-1.0.dist-info/METADATA")
//
// # Sources
//
// A [Source] is anything that can report its size and serve byte ranges.
// [HTTPSource] uses HEAD and `Range: bytes=a-b` through [httputil.Client];
// [S3Source] uses StatObject and ranged GetObject against any S3-compatible
// store. [Opener] picks one by URL scheme.
//
// # Limits
//
// The EOCD record is searched for in the last [DefaultTailWindow] bytes
// only. Archives whose trailing comment pushes the record further from the
// end fail with INVALID_ARCHIVE unless [Options.TailWindow] is raised.
//
// Only the store (0) and deflate (8) methods are supported. Every member
// read is checked against the CRC-32 recorded in the central directory.
package zipremote
