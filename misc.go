package xmss

import (
	"encoding/binary"
	"fmt"
	goLog "log"
)

// Encodes the given uint64 into the buffer out in Big Endian
func encodeUint64Into(x uint64, out []byte) {
	if len(out)%8 == 0 {
		binary.BigEndian.PutUint64(out[len(out)-8:], x)
		for i := 0; i < len(out)-8; i += 8 {
			binary.BigEndian.PutUint64(out[i:i+8], 0)
		}
	} else {
		for i := len(out) - 1; i >= 0; i-- {
			out[i] = byte(x)
			x >>= 8
		}
	}
}

// Encodes the given uint64 as [outLen]byte in Big Endian.
func encodeUint64(x uint64, outLen int) []byte {
	ret := make([]byte, outLen)
	encodeUint64Into(x, ret)
	return ret
}

// Interpret []byte as Big Endian int.
func decodeUint64(in []byte) (ret uint64) {
	for i := 0; i < len(in); i++ {
		ret |= uint64(in[i]) << uint64(8*(len(in)-1-i))
	}
	return
}

// Overwrites the buffer with zeros.
func wipe(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// ErrorCode classifies the errors returned by this package.
type ErrorCode int

const (
	// Malformed or out-of-range argument: unknown parameter set,
	// undersized buffer, leaf index outside the tree.
	InvalidInput ErrorCode = iota + 1

	// The key has no one-time signature indices left.  Terminal.
	KeyExhausted

	// A subkey reservation asked for more indices than the key has left.
	InsufficientCapacity

	// The signature does not verify under the given public key.
	VerificationFailed

	// The key failed its own root check; its state was not advanced.
	InternalConsistencyError

	// Resource exhaustion while building or mapping the tree cache.
	AllocationFailure

	// The private key container misbehaved.
	StorageError
)

func (code ErrorCode) String() string {
	switch code {
	case InvalidInput:
		return "invalid input"
	case KeyExhausted:
		return "key exhausted"
	case InsufficientCapacity:
		return "insufficient capacity"
	case VerificationFailed:
		return "verification failed"
	case InternalConsistencyError:
		return "internal consistency error"
	case AllocationFailure:
		return "allocation failure"
	case StorageError:
		return "storage error"
	}
	return "unclassified error"
}

// Error is the error type returned by this package.
type Error interface {
	error

	// Code classifies the failure.
	Code() ErrorCode

	// Locked is true if the error was caused by another process holding
	// a lock on the private key container.
	Locked() bool

	// Inner returns the wrapped error, if any.
	Inner() error
}

type errorImpl struct {
	msg    string
	code   ErrorCode
	locked bool
	inner  error
}

func (err *errorImpl) Code() ErrorCode { return err.code }
func (err *errorImpl) Locked() bool    { return err.locked }
func (err *errorImpl) Inner() error    { return err.inner }

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.inner.Error())
	}
	return err.msg
}

// Formats a new Error with the given code
func errorf(code ErrorCode, format string, a ...interface{}) *errorImpl {
	return &errorImpl{code: code, msg: fmt.Sprintf(format, a...)}
}

// Formats a new Error that wraps another
func wrapErrorf(code ErrorCode, err error, format string, a ...interface{}) *errorImpl {
	return &errorImpl{code: code, msg: fmt.Sprintf(format, a...), inner: err}
}

type dummyLogger struct{}
type stdlibLogger struct{}

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

type Logger interface {
	Logf(format string, a ...interface{})
}

// Enables logging to log package.  For more flexibility, see SetLogger().
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// Enables logging.  Disable logging by passing nil.
//
// Use EnableLogging if you want to log to the log package.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
