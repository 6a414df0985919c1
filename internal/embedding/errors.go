package embedding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable indicates that no embedding model could be loaded and
// the service runs on fallback vectors.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// ErrUnexpectedDimension indicates that the model returned vectors of a size
// other than the configured dimension.
var ErrUnexpectedDimension = errors.New("unexpected embedding dimension")

// LoadError records why each load attempt failed.
type LoadError struct {
	Model    string
	Cache    error
	Download error
}

func (e *LoadError) Error() string {
	var parts []string
	if e.Cache != nil {
		parts = append(parts, "cache: "+e.Cache.Error())
	}
	if e.Download != nil {
		parts = append(parts, "download: "+e.Download.Error())
	}
	return fmt.Sprintf("load model %q: %s", e.Model, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrModelUnavailable and the underlying causes.
func (e *LoadError) Unwrap() []error {
	errs := []error{ErrModelUnavailable}
	if e.Cache != nil {
		errs = append(errs, e.Cache)
	}
	if e.Download != nil {
		errs = append(errs, e.Download)
	}
	return errs
}
