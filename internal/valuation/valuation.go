package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidRequest is returned when the photo or description is missing or unusable.
	ErrInvalidRequest = errors.New("invalid estimate request")
	// ErrEstimationFailed wraps every transport, schema-validation and provider error.
	ErrEstimationFailed = errors.New("estimation failed")
)

// Request is the input of one valuation: a photo of the scrap item and a
// brief description of it.
type Request struct {
	Photo       *Photo
	Description string
}

// NewRequest builds a request from encoded image data and a description.
func NewRequest(photoDataURI, description string) (Request, error) {
	photo, err := ParseDataURI(photoDataURI)
	if err != nil {
		return Request{}, err
	}
	req := Request{Photo: photo, Description: strings.TrimSpace(description)}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks the input constraints of the valuation contract.
func (r Request) Validate() error {
	if r.Photo == nil || len(r.Photo.Data) == 0 {
		return fmt.Errorf("%w: photo is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	return nil
}

// Result is the structured valuation returned by the model.
type Result struct {
	EstimatedValue      float64 `json:"estimatedValue"`      // USD
	MaterialComposition string  `json:"materialComposition"` // e.g. "Aluminum, plastic"
	Condition           string  `json:"condition"`           // e.g. "Fair"
}

// Validate rejects results that do not satisfy the output schema.
func (r *Result) Validate() error {
	if math.IsNaN(r.EstimatedValue) || math.IsInf(r.EstimatedValue, 0) || r.EstimatedValue < 0 {
		return fmt.Errorf("estimatedValue must be a non-negative number, got %v", r.EstimatedValue)
	}
	if strings.TrimSpace(r.MaterialComposition) == "" {
		return errors.New("materialComposition is empty")
	}
	if strings.TrimSpace(r.Condition) == "" {
		return errors.New("condition is empty")
	}
	return nil
}

// FormattedValue renders the estimate as USD with two decimals, e.g. "$42.50".
func (r *Result) FormattedValue() string {
	return FormatUSD(r.EstimatedValue)
}

// FormatUSD formats an amount with a dollar sign and two decimals.
func FormatUSD(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Estimation is a result together with how it was obtained.
type Estimation struct {
	Result *Result
	Usage  Usage
	Cached bool
}

// Estimator estimates the value, material composition and condition of a
// scrap item.
type Estimator interface {
	Estimate(ctx context.Context, req Request) (*Estimation, error)
}

// EstimatorFunc adapts a function to the Estimator interface.
type EstimatorFunc func(ctx context.Context, req Request) (*Estimation, error)

// Estimate calls f(ctx, req).
func (f EstimatorFunc) Estimate(ctx context.Context, req Request) (*Estimation, error) {
	return f(ctx, req)
}
