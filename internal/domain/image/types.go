package image

// Payload carries a base64 encoded image together with its declared format.
// Camera and gallery captures both arrive in this shape and are treated
// identically once received.
type Payload struct {
	Data   string `json:"data"`
	Format string `json:"format,omitempty"`
}

// ValidationResult reports the outcome of payload sanitisation.
type ValidationResult struct {
	IsValid bool
	// Cleaned is the payload with any data-URI prefix stripped. Only set
	// when IsValid is true.
	Cleaned string
	Format  string
	Size    int
	Error   error
}
