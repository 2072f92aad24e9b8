package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// LabelCount is the number of digit classes in the dataset.
const LabelCount = 10

// ErrInvalidLabel indicates a label outside the digit range 0-9.
var ErrInvalidLabel = errors.New("label must be between 0 and 9")

// timestampLayout yields sortable, second-resolution filename timestamps.
const timestampLayout = "20060102_150405"

// Sample identifies one stored digit image.
type Sample struct {
	Label    int
	Filename string
	Key      string
}

// ParseLabel converts the label form value into a digit class.
func ParseLabel(value string) (int, error) {
	label, err := strconv.Atoi(value)
	if err != nil {
		return 0, ErrInvalidLabel
	}
	if err := ValidateLabel(label); err != nil {
		return 0, err
	}
	return label, nil
}

// ValidateLabel checks that the label names a digit class.
func ValidateLabel(label int) error {
	if label < 0 || label >= LabelCount {
		return ErrInvalidLabel
	}
	return nil
}

// NewSample derives the storage identity for a digit captured at the given
// time. The filename carries the label, a sortable timestamp and a short
// random suffix, so two uploads of the same digit in the same second stay
// distinct without any coordination.
func NewSample(label int, now time.Time) (*Sample, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}

	suffix := uuid.NewString()[:8]
	filename := fmt.Sprintf("digit_%d_%s_%s.png", label, now.Format(timestampLayout), suffix)

	return &Sample{
		Label:    label,
		Filename: filename,
		Key:      fmt.Sprintf("%d/%s", label, filename),
	}, nil
}
