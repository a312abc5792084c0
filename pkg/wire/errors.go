package wire

import "errors"

// Decode errors. Every decode failure wraps ErrMalformedMessage together
// with one of the more specific errors below.
var (
	ErrMalformedMessage  = errors.New("malformed SD message")
	ErrTruncated         = errors.New("message truncated")
	ErrBadHeader         = errors.New("unexpected SOME/IP header field")
	ErrBadLength         = errors.New("inconsistent length field")
	ErrBadOption         = errors.New("invalid option")
	ErrTooManyOptions    = errors.New("too many options")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidConfigItem = errors.New("invalid configuration item")
	ErrNotUnicast        = errors.New("unicast flag not set")
)

// Encode errors.
var (
	ErrBufferTooSmall     = errors.New("message buffer too small")
	ErrInvalidEndpoint    = errors.New("invalid endpoint address")
	ErrUnsupportedOption  = errors.New("unsupported option type")
	ErrUnsupportedEntry   = errors.New("unsupported entry type")
	ErrConfigOptionLength = errors.New("configuration option too long")
)

// Reason returns a short label for a decode error, suitable for metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrBadHeader):
		return "header"
	case errors.Is(err, ErrBadLength):
		return "length"
	case errors.Is(err, ErrTooManyOptions):
		return "too_many_options"
	case errors.Is(err, ErrBadOption), errors.Is(err, ErrInvalidConfigItem):
		return "option"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index"
	case errors.Is(err, ErrNotUnicast):
		return "not_unicast"
	default:
		return "other"
	}
}
