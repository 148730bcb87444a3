// Package httputil provides the HTTP client shared by the index client and
// the remote archive reader.
//
// # Overview
//
// [Client] wraps a retryablehttp client and exposes the three request shapes
// the resolver needs:
//
//   - [Client.Get]: whole documents (index pages)
//   - [Client.Size]: HEAD request reporting Content-Length
//   - [Client.Range]: a byte range of a remote file via the Range header
//
// Failures are reported as coded errors from [errors]: a 404 maps to
// NOT_FOUND, a missing Content-Length to SIZE_UNKNOWN and everything else to
// NETWORK_ERROR.
//
// # Retries
//
// Retries are off by default: a failed fetch aborts the resolution that
// issued it. Set [Options.Retries] to enable exponential backoff for
// connection errors and 5xx/429 responses.
//
// [errors]: github.com/matzehuels/pyboot/pkg/errors
package httputil
