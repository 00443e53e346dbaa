package rekognition

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	rek "github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ppe-scan/internal/detection"
	"github.com/example/ppe-scan/internal/logging"
)

type stubAPI struct {
	out   *rek.DetectProtectiveEquipmentOutput
	err   error
	input *rek.DetectProtectiveEquipmentInput
}

func (s *stubAPI) DetectProtectiveEquipment(ctx context.Context, params *rek.DetectProtectiveEquipmentInput, optFns ...func(*rek.Options)) (*rek.DetectProtectiveEquipmentOutput, error) {
	s.input = params
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func TestDetectBuildsRequest(t *testing.T) {
	api := &stubAPI{out: &rek.DetectProtectiveEquipmentOutput{}}
	client := NewClient(api, zap.NewNop())

	_, err := client.DetectProtectiveEquipment(context.Background(), detection.NewRequest("demo", "a.jpg"))
	require.NoError(t, err)

	require.NotNil(t, api.input.Image)
	require.NotNil(t, api.input.Image.S3Object)
	assert.Equal(t, "demo", aws.ToString(api.input.Image.S3Object.Bucket))
	assert.Equal(t, "a.jpg", aws.ToString(api.input.Image.S3Object.Name))
	assert.Nil(t, api.input.Image.Bytes)

	attrs := api.input.SummarizationAttributes
	require.NotNil(t, attrs)
	assert.Equal(t, float32(80), aws.ToFloat32(attrs.MinConfidence))
	assert.Equal(t, []types.ProtectiveEquipmentType{types.ProtectiveEquipmentTypeFaceCover}, attrs.RequiredEquipmentTypes)
}

func TestDetectConvertsOutput(t *testing.T) {
	api := &stubAPI{out: &rek.DetectProtectiveEquipmentOutput{
		Persons: []types.ProtectiveEquipmentPerson{
			{
				Id:         aws.Int32(0),
				Confidence: aws.Float32(99.5),
				BodyParts: []types.ProtectiveEquipmentBodyPart{
					{Name: types.BodyPartFace, Confidence: aws.Float32(98)},
					{Name: types.BodyPartHead, Confidence: aws.Float32(97)},
				},
			},
			{
				Id: aws.Int32(1),
				BodyParts: []types.ProtectiveEquipmentBodyPart{
					{
						Name: types.BodyPartFace,
						EquipmentDetections: []types.EquipmentDetection{{
							Type:           types.ProtectiveEquipmentTypeFaceCover,
							Confidence:     aws.Float32(91),
							CoversBodyPart: &types.CoversBodyPart{Value: true},
						}},
					},
				},
			},
		},
	}}
	client := NewClient(api, zap.NewNop())

	result, err := client.DetectProtectiveEquipment(context.Background(), detection.NewRequest("demo", "a.jpg"))
	require.NoError(t, err)

	require.Equal(t, 2, result.PersonCount())
	first := result.Persons[0]
	assert.Equal(t, int32(0), first.ID)
	assert.InDelta(t, 99.5, first.Confidence, 0.001)
	require.Len(t, first.BodyParts, 2)
	assert.Equal(t, "FACE", first.BodyParts[0].Name)
	assert.Empty(t, first.BodyParts[0].EquipmentDetections)

	second := result.Persons[1]
	require.Len(t, second.BodyParts[0].EquipmentDetections, 1)
	eq := second.BodyParts[0].EquipmentDetections[0]
	assert.Equal(t, "FACE_COVER", eq.Type)
	assert.True(t, eq.CoversBodyPart)

	assert.True(t, detection.IsViolation(result))
}

func TestDetectClassifiesErrors(t *testing.T) {
	cases := []struct {
		code     string
		sentinel error
	}{
		{"ThrottlingException", detection.ErrThrottled},
		{"ProvisionedThroughputExceededException", detection.ErrThrottled},
		{"InvalidImageFormatException", detection.ErrInvalidImage},
		{"ImageTooLargeException", detection.ErrInvalidImage},
		{"AccessDeniedException", detection.ErrAccessDenied},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			api := &stubAPI{err: &smithy.GenericAPIError{Code: tc.code}}
			client := NewClient(api, zap.NewNop())

			_, err := client.DetectProtectiveEquipment(context.Background(), detection.NewRequest("demo", "a.jpg"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)

			var opErr *logging.OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, "demo", opErr.Bucket)
			assert.Equal(t, "a.jpg", opErr.Key)
		})
	}
}

func TestDetectPassesThroughNetworkErrors(t *testing.T) {
	boom := errors.New("dial tcp: timeout")
	client := NewClient(&stubAPI{err: boom}, zap.NewNop())

	_, err := client.DetectProtectiveEquipment(context.Background(), detection.NewRequest("demo", "a.jpg"))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, detection.ErrThrottled)
}
