package msgskema

import (
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/reoring/msgskema/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidConvert   = "invalid_convert"
	CodeOddPairs         = "odd_pairs"
	CodeUnhashableKey    = "unhashable_key"
	CodeArity            = "arity"
	CodeCodecGenerate    = "codec_generate"
	CodeCodecInstantiate = "codec_instantiate"
)

var (
	// ErrTypeConversion matches every *TypeError via errors.Is.
	ErrTypeConversion = errors.New("msgskema: type conversion")
	// ErrCodecGeneration matches every *GenerationError via errors.Is.
	ErrCodecGeneration = errors.New("msgskema: codec generation")
	// ErrCodecInstantiation matches every *InstantiationError via errors.Is.
	ErrCodecInstantiation = errors.New("msgskema: codec instantiation")
)

// TypeError reports a value whose type or shape does not match the schema,
// template or codec that received it.
type TypeError struct {
	Code   string // One of the Code* constants above.
	Value  any    // The rejected value (host value or Value).
	Target string // Expression or type name of the rejecting schema.
	Hint   string // Optional detail.
}

func (e *TypeError) Error() string {
	msg := i18n.T(e.Code, map[string]string{"target": e.Target})
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return fmt.Sprintf("msgskema: %s: %s", msg, describe(e.Value))
}

func (e *TypeError) Is(target error) bool { return target == ErrTypeConversion }

// InvalidConvert returns the TypeError raised when v is outside target's
// domain.
func InvalidConvert(v any, target string) error {
	return &TypeError{Code: CodeInvalidConvert, Value: v, Target: target}
}

// ArityError reports an array whose element count differs from the expected
// field or element count.
func ArityError(target string, want, got int) error {
	return &TypeError{Code: CodeArity, Value: got, Target: target, Hint: fmt.Sprintf("want %d elements", want)}
}

// AsTypeError extracts a *TypeError using errors.As internally.
func AsTypeError(err error) (*TypeError, bool) {
	var te *TypeError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// GenerationError reports that specialized codec logic could not be
// synthesized for Type.
type GenerationError struct {
	Type  reflect.Type
	Cause error
}

func (e *GenerationError) Error() string {
	return "msgskema: " + i18n.T(CodeCodecGenerate, map[string]string{"target": typeName(e.Type)}) + ": " + causeText(e.Cause)
}

func (e *GenerationError) Unwrap() error        { return e.Cause }
func (e *GenerationError) Is(target error) bool { return target == ErrCodecGeneration }

// InstantiationError reports that synthesized codec logic could not be turned
// into a working codec for Type.
type InstantiationError struct {
	Type  reflect.Type
	Cause error
}

func (e *InstantiationError) Error() string {
	return "msgskema: " + i18n.T(CodeCodecInstantiate, map[string]string{"target": typeName(e.Type)}) + ": " + causeText(e.Cause)
}

func (e *InstantiationError) Unwrap() error        { return e.Cause }
func (e *InstantiationError) Is(target error) bool { return target == ErrCodecInstantiation }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func causeText(err error) string {
	if err == nil {
		return "unknown cause"
	}
	return err.Error()
}

// describe renders a rejected value, keeping messages bounded.
func describe(v any) string {
	const maxLen = 64
	var s string
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case Value:
		s = x.Kind().String() + " " + x.String()
	default:
		s = fmt.Sprintf("%T %v", v, v)
	}
	if len(s) > maxLen {
		n := maxLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	return s
}
