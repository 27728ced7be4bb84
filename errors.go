package afm

import "fmt"

// Error is the interface for errors that all packages in this library
// implement. The Decorate method allows to add and retrieve info from the
// error without changing its type or wrapping it around something else.
// Each Decorate call should add the name of the calling function, plus,
// optionally, any relevant extra information ("FunctionName: Extra info").
type Error interface {
	Error() string
	Decorate(string) []string
}

// CError is the concrete error type of the library.
type CError struct {
	msg  string
	deco []string
}

// NewError builds a CError with the message formatted fmt.Sprintf-style,
// decorated with the name of the function that produced it.
func NewError(where string, format string, a ...interface{}) *CError {
	return &CError{msg: fmt.Sprintf(format, a...), deco: []string{where}}
}

func (err *CError) Error() string { return err.msg }

// Decorate adds dec to the decoration slice of the error and returns the
// resulting slice. An empty string just returns the current value.
func (err *CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// errDecorate asserts that err implements Error and adds the caller's
// name to it before returning it. Calling it with anything else panics,
// which is fine, as that would be a bug.
func errDecorate(err error, caller string) error {
	err2 := err.(Error)
	err2.Decorate(caller)
	return err2
}

// PanicMsg is a message used for panics on programmer errors. It does
// satisfy the error interface, but for recoverable conditions use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNilFF       = PanicMsg("afmtogmx: nil force field given")
	ErrNilMolecule = PanicMsg("afmtogmx: nil molecule given")
)
