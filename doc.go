// *Rower* is the core of a Gopher ([RFC 1436][rfc1436]) browser: it fetches
// resources off Gopher servers and turns them into menus and documents
// ready to be displayed.
//
// ## How it works
//
// A `Client` sends a selector over a fresh TCP connection and reads until
// the server hangs up. Hostnames are resolved once and remembered in an
// `AddressCache`, shared by every client of the process unless you inject
// your own.
//
// The payload is then handed to the parsers of [`pkg/gopher`][pkg-gopher]:
//
// * Directories become a `gopher.Menu`, an ordered list of entities. Lines
// missing fields are completed with defaults, so parsing never fails.
// * Text documents have their dot-stuffing removed.
// * Anything else is kept as raw bytes, or streamed to disk with
// `Client.DownloadToFile`.
//
// A `Navigator` chains both steps for a browsing session and hands every
// page to an asynchronous consumer through a [`pkg/flow`][pkg-flow]
// `Local` flow. Pages live one navigation longer than needed, so a
// consumer still rendering the previous page is never pulled from under.
//
// ## Failure model
//
// Failures are never silent, but they stay cheap to ignore: every failed
// request returns the canonical empty buffer *and* an error wrapping
// `ErrResolve`, `ErrConnect`, `ErrSend` or `ErrReceive`. Callers only
// interested in "did I get something" may check `ByteBuffer.IsEmpty`.
// There are no retries.
//
// Requests honor their `context.Context`. Without a deadline and without
// `WithReadTimeout`, a stalled server blocks the request until the context
// is cancelled.
//
// [rfc1436]: https://www.rfc-editor.org/rfc/rfc1436
// [pkg-gopher]: https://pkg.go.dev/github.com/raskyld/rower/pkg/gopher
// [pkg-flow]: https://pkg.go.dev/github.com/raskyld/rower/pkg/flow
package rower
