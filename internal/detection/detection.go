// Package detection models protective-equipment detection results and the
// rule that classifies an image as a violation.
package detection

import (
	"context"
	"errors"
)

// BodyPartFace is the body part name the violation rule inspects.
const BodyPartFace = "FACE"

// EquipmentFaceCover is the equipment type requested for every scan.
const EquipmentFaceCover = "FACE_COVER"

// DefaultMinConfidence is the minimum confidence, in percent, requested from the detector.
const DefaultMinConfidence float32 = 80

// Sentinel errors reported by Detector implementations.
var (
	ErrThrottled    = errors.New("detection: request throttled")
	ErrInvalidImage = errors.New("detection: invalid image")
	ErrAccessDenied = errors.New("detection: access denied")
)

// Request identifies an image stored in a bucket and the detection parameters.
type Request struct {
	Bucket            string
	Key               string
	MinConfidence     float32
	RequiredEquipment []string
}

// NewRequest builds the request used by scans: face cover at 80% confidence.
func NewRequest(bucket, key string) Request {
	return Request{
		Bucket:            bucket,
		Key:               key,
		MinConfidence:     DefaultMinConfidence,
		RequiredEquipment: []string{EquipmentFaceCover},
	}
}

// Result contains the persons found in one image.
type Result struct {
	Persons []Person `json:"persons"`
}

// Person is a single detected person and the body parts observed on them.
type Person struct {
	ID         int32      `json:"id"`
	Confidence float32    `json:"confidence"`
	BodyParts  []BodyPart `json:"bodyParts"`
}

// BodyPart is a named body part with the equipment detected on or near it.
type BodyPart struct {
	Name                string               `json:"name"`
	Confidence          float32              `json:"confidence"`
	EquipmentDetections []EquipmentDetection `json:"equipmentDetections"`
}

// EquipmentDetection is one item of protective equipment.
type EquipmentDetection struct {
	Type           string  `json:"type"`
	Confidence     float32 `json:"confidence"`
	CoversBodyPart bool    `json:"coversBodyPart"`
}

// PersonCount returns the number of detected persons.
func (r *Result) PersonCount() int {
	if r == nil {
		return 0
	}
	return len(r.Persons)
}

// Detector exposes the subset of functionality used by the scan flow.
type Detector interface {
	DetectProtectiveEquipment(ctx context.Context, req Request) (*Result, error)
}

// IsViolation reports whether any person has a visible face with no
// equipment detected on it. A person without a FACE observation does not
// count as a violation.
func IsViolation(result *Result) bool {
	if result == nil {
		return false
	}
	for _, person := range result.Persons {
		for _, part := range person.BodyParts {
			if part.Name == BodyPartFace && len(part.EquipmentDetections) == 0 {
				return true
			}
		}
	}
	return false
}
