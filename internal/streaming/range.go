// Package streaming plans and performs byte-range responses for stored files.
//
// PlanResponse is a pure function from (total size, Range header, content
// type) to the status, headers, and byte window of the response. Copy then
// moves exactly that window to the client, stopping as soon as the request
// context ends or the client stops reading.
//
// Only a single range is honoured. For a multi-range header such as
// "bytes=0-99,200-299" the segment before the first comma is used. A header
// that is not of the form "bytes=<start>-[<end>]" with decimal offsets
// (suffix ranges like "bytes=-500", other units) is ignored and the full
// resource is served with 200. So is an end before the start, unless the start
// already lies beyond the resource, which is always 416.
package streaming

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Window is an inclusive byte range [Start, End] within a resource.
type Window struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the window.
func (w Window) Len() int64 {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start + 1
}

// Plan describes a response to a (possibly ranged) read of a resource.
type Plan struct {
	Status int
	Header http.Header
	// Window is the body to send. Ignored when HasBody is false.
	Window  Window
	HasBody bool
}

// Satisfiable reports whether the plan carries the resource (fully or partially).
func (p Plan) Satisfiable() bool {
	return p.Status != http.StatusRequestedRangeNotSatisfiable
}

// PlanResponse computes the response for a resource of totalSize bytes.
// An empty rangeHeader means no Range header was sent.
func PlanResponse(totalSize int64, rangeHeader, contentType string) Plan {
	header := make(http.Header)
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Type", contentType)

	start, end, ok := parseRange(rangeHeader)
	if ok && start < totalSize && end >= 0 && end < start {
		// An inverted range is syntactically invalid. Past the end it is
		// still unsatisfiable, whatever its end.
		ok = false
	}
	if !ok {
		header.Set("Content-Length", strconv.FormatInt(totalSize, 10))
		return Plan{
			Status:  http.StatusOK,
			Header:  header,
			Window:  Window{Start: 0, End: totalSize - 1},
			HasBody: totalSize > 0,
		}
	}

	if start >= totalSize {
		header.Del("Content-Type")
		header.Set("Content-Range", "bytes */"+strconv.FormatInt(totalSize, 10))
		return Plan{
			Status: http.StatusRequestedRangeNotSatisfiable,
			Header: header,
		}
	}

	if end < 0 || end >= totalSize {
		end = totalSize - 1
	}
	window := Window{Start: start, End: end}

	header.Set("Content-Range", contentRange(window, totalSize))
	header.Set("Content-Length", strconv.FormatInt(window.Len(), 10))
	return Plan{
		Status:  http.StatusPartialContent,
		Header:  header,
		Window:  window,
		HasBody: true,
	}
}

// parseRange extracts start and end from the first range of a bytes
// Range header. end is -1 when open-ended and may be below start.
func parseRange(h string) (start, end int64, ok bool) {
	h = strings.TrimSpace(h)
	const prefix = "bytes="
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return 0, 0, false
	}

	segment, _, _ := strings.Cut(h[len(prefix):], ",")
	first, last, found := strings.Cut(strings.TrimSpace(segment), "-")
	if !found || !isDigits(first) {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		// Larger than int64: beyond any resource.
		start = math.MaxInt64
	}

	if last == "" {
		return start, -1, true
	}
	if !isDigits(last) {
		return 0, 0, false
	}
	end, err = strconv.ParseInt(last, 10, 64)
	if err != nil {
		// Larger than int64: clamped to the resource end like any oversized end.
		return start, -1, true
	}
	return start, end, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func contentRange(w Window, total int64) string {
	return "bytes " + strconv.FormatInt(w.Start, 10) + "-" + strconv.FormatInt(w.End, 10) + "/" + strconv.FormatInt(total, 10)
}

// Apply writes the plan's headers and status to w.
func (p Plan) Apply(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range p.Header {
		dst[k] = v
	}
	w.WriteHeader(p.Status)
}
