package core

// Typed errors separating what the user can fix from what they cannot.
// Handlers turn ValidationErr and NotFoundErr into chat replies; a
// storage.TxError passes through to the gateway.

type coreErr struct {
	message string
}

func (e coreErr) Error() string {
	return e.message
}

// ValidationErr signals malformed or out-of-range command input.
type ValidationErr struct {
	coreErr
}

func NewValidationErr(message string) *ValidationErr {
	return &ValidationErr{coreErr{message: message}}
}

// NotFoundErr signals that a referenced entity does not exist.
type NotFoundErr struct {
	coreErr
}

func NewNotFoundErr(message string) *NotFoundErr {
	return &NotFoundErr{coreErr{message: message}}
}
