package translate

// ValidationError is a request-shape problem surfaced to the client as a
// 400 or 413 with a short machine-readable tag.
type ValidationError struct {
	Tag     string
	Message string
	Status  int
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(tag, message string) error {
	return &ValidationError{Tag: tag, Message: message, Status: 400}
}

func validationErrStatus(status int, tag, message string) error {
	return &ValidationError{Tag: tag, Message: message, Status: status}
}
