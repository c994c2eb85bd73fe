package mailer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyAddress     = errors.New("empty email address")
	ErrMalformedAddress = errors.New("malformed email address")
)

// validator instances cache struct metadata and are safe for concurrent use
var addressValidator = validator.New()

// Address is a validated, transport-ready mailbox.
type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// AddressError reports a raw email string that failed validation.
type AddressError struct {
	Raw string
	Err error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid email address %q: %v", e.Raw, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// ResolveAddress validates raw and converts it into an Address.
// Failures are always *AddressError.
func ResolveAddress(raw string) (Address, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Address{}, &AddressError{Raw: raw, Err: ErrEmptyAddress}
	}
	if err := addressValidator.Var(s, "email"); err != nil {
		return Address{}, &AddressError{Raw: raw, Err: ErrMalformedAddress}
	}
	return Address{Email: s}, nil
}
