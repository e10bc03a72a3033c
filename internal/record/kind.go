package record

import (
	"encoding/json"
	"fmt"
)

// Kind classifies an error record. Every engine event or content check maps
// to exactly one Kind.
type Kind int

// Record kinds, ordered roughly by how often they appear in practice.
const (
	// KindHTTPError is a fetch that completed with a 4xx or 5xx status.
	KindHTTPError Kind = iota

	// KindFetchError is a generic transport failure (connection refused,
	// reset, DNS, TLS handshake).
	KindFetchError

	// KindTimeout is a fetch that exceeded the request deadline.
	KindTimeout

	// KindGzipError is a response body that failed decompression.
	KindGzipError

	// KindClientError is a failure raised inside the HTTP client itself.
	KindClientError

	// KindQueueError is a failure to enqueue a discovered URL.
	KindQueueError

	// KindTitleMismatch is a page whose title did not match the configured
	// title pattern.
	KindTitleMismatch

	// KindBrokenFragment is an href fragment whose target id was never
	// declared by the target page.
	KindBrokenFragment

	// KindIgnored marks a URL skipped by the include/exclude filter. It is
	// informational and never affects the exit code.
	KindIgnored
)

// kindNames maps kinds to their wire/report names.
var kindNames = map[Kind]string{
	KindHTTPError:      "http-error",
	KindFetchError:     "fetch-error",
	KindTimeout:        "fetch-timeout",
	KindGzipError:      "gzip-error",
	KindClientError:    "client-error",
	KindQueueError:     "queue-error",
	KindTitleMismatch:  "title-mismatch",
	KindBrokenFragment: "broken-fragment",
	KindIgnored:        "ignored",
}

// allKinds is the report ordering: content failures first, then transport.
var allKinds = []Kind{
	KindBrokenFragment,
	KindTitleMismatch,
	KindHTTPError,
	KindFetchError,
	KindTimeout,
	KindGzipError,
	KindClientError,
	KindQueueError,
	KindIgnored,
}

// String returns the report name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Informational reports whether records of this kind are excluded from the
// exit-code decision.
func (k Kind) Informational() bool {
	return k == KindIgnored
}

// MarshalJSON encodes the kind as its report name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind from its report name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for kind, n := range kindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown record kind %q", name)
}
