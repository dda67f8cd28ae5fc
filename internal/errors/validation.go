package errors

// SyntaxError represents a failure to parse Python source
type SyntaxError struct {
	*BaseError
	Snippet string // the source text that failed to parse
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		BaseError: New(SyntaxErrorCode, message),
	}
}

// WithLocation adds location information to the error
func (e *SyntaxError) WithLocation(loc SourceLocation) *SyntaxError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSnippet records the offending source text
func (e *SyntaxError) WithSnippet(snippet string) *SyntaxError {
	e.Snippet = snippet
	return e.WithContext("snippet", snippet)
}

// WithContext adds context data to the error
func (e *SyntaxError) WithContext(key string, value interface{}) *SyntaxError {
	e.BaseError.WithContext(key, value)
	return e
}

// ValidationError represents an input that violates a documented invariant
type ValidationError struct {
	*BaseError
}

// WithContext adds context data to the error
func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	e.BaseError.WithContext(key, value)
	return e
}

// GenerationError represents a failure while rendering or writing a stub
type GenerationError struct {
	*BaseError
}
