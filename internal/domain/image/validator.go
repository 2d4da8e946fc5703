package image

import (
	"strings"

	"calotrack-server-go/internal/platform/config"
	"calotrack-server-go/internal/platform/errors"
	"calotrack-server-go/internal/platform/logging"
)

// Validator performs syntactic checks against incoming image payloads before
// they are sent to the analysis provider. It never decodes the image; raster
// validity is the provider's concern.
type Validator struct {
	config *config.ImageConfig
	logger *logging.Logger
}

// NewValidator constructs a new validator instance.
func NewValidator(cfg *config.ImageConfig, logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &Validator{
		config: cfg,
		logger: logger,
	}
}

const defaultMinPayloadChars = 128

// Sanitize validates a raw base64 payload and returns it cleaned for
// transmission: blank input rejected, a recognised data-URI prefix stripped,
// the remainder checked against the base64 alphabet with at most two trailing
// padding characters, and a minimum length floor applied to exclude
// degenerate captures.
func (v *Validator) Sanitize(raw string) ValidationResult {
	result := ValidationResult{}

	payload := strings.TrimSpace(raw)
	if payload == "" {
		result.Error = errors.New(errors.KindValidation, "image.sanitize", "missing image payload")
		return result
	}

	payload, format := stripDataURIPrefix(payload)

	if !isBase64Alphabet(payload) {
		result.Error = errors.New(errors.KindValidation, "image.sanitize", "payload is not valid base64")
		return result
	}

	minChars := defaultMinPayloadChars
	if v.config != nil && v.config.MinPayloadChars > 0 {
		minChars = v.config.MinPayloadChars
	}
	if len(payload) < minChars {
		v.logger.Warn("rejected undersized image payload: size=%d floor=%d", len(payload), minChars)
		result.Error = errors.New(errors.KindValidation, "image.sanitize", "payload below minimum size")
		return result
	}

	if v.config != nil && v.config.MaxPayloadBytes > 0 && int64(len(payload)) > v.config.MaxPayloadBytes {
		v.logger.Warn("rejected oversized image payload: size=%d max=%d", len(payload), v.config.MaxPayloadBytes)
		result.Error = errors.New(errors.KindValidation, "image.sanitize", "payload exceeds maximum size")
		return result
	}

	result.IsValid = true
	result.Cleaned = payload
	result.Format = format
	result.Size = len(payload)
	return result
}

// stripDataURIPrefix removes a "data:image/…;base64," prefix if present and
// reports the declared format. Only the payload after the first comma is kept.
func stripDataURIPrefix(payload string) (string, string) {
	if !strings.HasPrefix(payload, "data:") {
		return payload, ""
	}
	comma := strings.Index(payload, ",")
	if comma < 0 {
		return payload, ""
	}

	header := payload[:comma]
	format := ""
	if rest, ok := strings.CutPrefix(header, "data:image/"); ok {
		if semi := strings.Index(rest, ";"); semi > 0 {
			format = rest[:semi]
		}
	}
	return payload[comma+1:], format
}

// isBase64Alphabet reports whether s consists solely of standard base64
// characters, allowing up to two trailing '=' padding characters.
func isBase64Alphabet(s string) bool {
	padding := 0
	for strings.HasSuffix(s, "=") && padding < 2 {
		s = s[:len(s)-1]
		padding++
	}
	if strings.Contains(s, "=") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '+' || r == '/':
		default:
			return false
		}
	}
	return len(s) > 0
}
