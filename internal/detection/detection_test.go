package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func face(equipment ...EquipmentDetection) BodyPart {
	return BodyPart{Name: BodyPartFace, EquipmentDetections: equipment}
}

var mask = EquipmentDetection{Type: EquipmentFaceCover, Confidence: 99, CoversBodyPart: true}

func TestIsViolation(t *testing.T) {
	cases := []struct {
		name   string
		result *Result
		want   bool
	}{
		{"nil result", nil, false},
		{"no persons", &Result{}, false},
		{"covered face", &Result{Persons: []Person{{BodyParts: []BodyPart{face(mask)}}}}, false},
		{"bare face", &Result{Persons: []Person{{BodyParts: []BodyPart{face()}}}}, true},
		{"no face observed", &Result{Persons: []Person{{BodyParts: []BodyPart{{Name: "LEFT_HAND"}}}}}, false},
		{"bare head is not a violation", &Result{Persons: []Person{{BodyParts: []BodyPart{face(mask), {Name: "HEAD"}}}}}, false},
		{
			"one of many persons bare",
			&Result{Persons: []Person{
				{BodyParts: []BodyPart{face(mask)}},
				{BodyParts: []BodyPart{{Name: "HEAD"}, face()}},
				{BodyParts: []BodyPart{face(mask)}},
			}},
			true,
		},
		{
			"several bare persons",
			&Result{Persons: []Person{{BodyParts: []BodyPart{face()}}, {BodyParts: []BodyPart{face()}}}},
			true,
		},
		{"lowercase name ignored", &Result{Persons: []Person{{BodyParts: []BodyPart{{Name: "face"}}}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsViolation(tc.result))
		})
	}
}

func TestNewRequestDefaults(t *testing.T) {
	req := NewRequest("demo", "a.jpg")

	assert.Equal(t, "demo", req.Bucket)
	assert.Equal(t, "a.jpg", req.Key)
	assert.Equal(t, float32(80), req.MinConfidence)
	assert.Equal(t, []string{"FACE_COVER"}, req.RequiredEquipment)
}

func TestPersonCount(t *testing.T) {
	var nilResult *Result
	assert.Equal(t, 0, nilResult.PersonCount())
	assert.Equal(t, 2, (&Result{Persons: make([]Person, 2)}).PersonCount())
}
