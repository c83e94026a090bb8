package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// FetchFailure is the user-facing category of a failed page fetch.
type FetchFailure string

const (
	FetchTimeout           FetchFailure = "timeout"
	FetchConnectionRefused FetchFailure = "connection_refused"
	FetchTLS               FetchFailure = "tls"
	FetchDNS               FetchFailure = "dns"
	FetchUnknown           FetchFailure = "unknown"
)

var fetchMessages = map[FetchFailure]string{
	FetchTimeout:           "the page took too long to respond, try again later or use a different URL",
	FetchConnectionRefused: "the server refused the connection, check that the site is up",
	FetchTLS:               "the TLS certificate of the site could not be verified",
	FetchDNS:               "the host name could not be resolved, check the URL spelling",
	FetchUnknown:           "unknown error while fetching, check the URL and network connection",
}

// Message returns the friendly text shown for the category.
func (f FetchFailure) Message() string {
	if msg, ok := fetchMessages[f]; ok {
		return msg
	}
	return fetchMessages[FetchUnknown]
}

// ClassifyFetchError sorts a fetch failure into a category. Typed errors are
// checked first, then the message text. The result is best effort.
func ClassifyFetchError(err error) FetchFailure {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FetchDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return FetchConnectionRefused
	}

	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var certErr x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &unknownAuth) || errors.As(err, &hostErr) || errors.As(err, &certErr) || errors.As(err, &recordErr) {
		return FetchTLS
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return FetchTimeout
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connectionrefused"):
		return FetchConnectionRefused
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "tls"), strings.Contains(msg, "ssl"), strings.Contains(msg, "x509"):
		return FetchTLS
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "name resolution"), strings.Contains(msg, "getaddrinfo"), strings.Contains(msg, "dns"):
		return FetchDNS
	default:
		return FetchUnknown
	}
}

// FriendlyFetchMessage classifies err and returns its friendly text.
func FriendlyFetchMessage(err error) string {
	return ClassifyFetchError(err).Message()
}
