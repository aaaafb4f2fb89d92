package order

import (
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindQuoteUnavailable
	KindChainRead
	KindApprovalFailed
	KindOrderRejected
	KindTransport
	KindProtocolViolation
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindConfig:            "config_error",
	KindQuoteUnavailable:  "quote_unavailable",
	KindChainRead:         "chain_read_error",
	KindApprovalFailed:    "approval_failed",
	KindOrderRejected:     "order_rejected",
	KindTransport:         "transport_error",
	KindProtocolViolation: "protocol_violation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error classifies a failure of a single lifecycle step. Status and Message
// are only set for rejections returned by the order endpoint.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindOrderRejected && e.Err == nil:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Message)
	case e.Err == nil:
		return e.Kind.String()
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

func newError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func ConfigError(err error) error       { return newError(KindConfig, err) }
func QuoteUnavailable(err error) error  { return newError(KindQuoteUnavailable, err) }
func ChainReadError(err error) error    { return newError(KindChainRead, err) }
func ApprovalFailed(err error) error    { return newError(KindApprovalFailed, err) }
func TransportError(err error) error    { return newError(KindTransport, err) }
func ProtocolViolation(err error) error { return newError(KindProtocolViolation, err) }

func OrderRejected(status int, message string) error {
	return &Error{Kind: KindOrderRejected, Status: status, Message: message}
}

// KindOf walks both Unwrap and Cause chains, so errors wrapped by logan
// are still classified.
func KindOf(err error) Kind {
	if e := AsError(err); e != nil {
		return e.Kind
	}
	return KindUnknown
}

func AsError(err error) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		switch next := err.(type) {
		case interface{ Unwrap() error }:
			err = next.Unwrap()
		case interface{ Cause() error }:
			err = next.Cause()
		default:
			return nil
		}
	}
	return nil
}
