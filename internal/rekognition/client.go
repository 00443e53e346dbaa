// Package rekognition adapts Amazon Rekognition to the detection.Detector interface.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	rek "github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/example/ppe-scan/internal/detection"
	"github.com/example/ppe-scan/internal/logging"
)

// API is the subset of the Rekognition client used by Client.
type API interface {
	DetectProtectiveEquipment(ctx context.Context, params *rek.DetectProtectiveEquipmentInput, optFns ...func(*rek.Options)) (*rek.DetectProtectiveEquipmentOutput, error)
}

// Client detects protective equipment on images stored in S3.
type Client struct {
	api    API
	logger *zap.Logger
}

// NewClient returns a detector backed by the given Rekognition API.
func NewClient(api API, logger *zap.Logger) *Client {
	return &Client{api: api, logger: logger.Named("rekognition")}
}

// DetectProtectiveEquipment runs PPE detection on req.Bucket/req.Key.
func (c *Client) DetectProtectiveEquipment(ctx context.Context, req detection.Request) (*detection.Result, error) {
	out, err := c.api.DetectProtectiveEquipment(ctx, buildInput(req))
	if err != nil {
		wrapped := logging.NewTargetError("rekognition.detect_protective_equipment", "", req.Bucket, req.Key, classify(err))
		c.logger.Error("protective equipment detection failed",
			zap.Error(wrapped),
			zap.String("bucket", req.Bucket),
			zap.String("key", req.Key),
		)
		return nil, wrapped
	}
	return convertOutput(out), nil
}

func buildInput(req detection.Request) *rek.DetectProtectiveEquipmentInput {
	equipment := make([]types.ProtectiveEquipmentType, 0, len(req.RequiredEquipment))
	for _, e := range req.RequiredEquipment {
		equipment = append(equipment, types.ProtectiveEquipmentType(e))
	}
	return &rek.DetectProtectiveEquipmentInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(req.Bucket),
				Name:   aws.String(req.Key),
			},
		},
		SummarizationAttributes: &types.ProtectiveEquipmentSummarizationAttributes{
			MinConfidence:          aws.Float32(req.MinConfidence),
			RequiredEquipmentTypes: equipment,
		},
	}
}

func convertOutput(out *rek.DetectProtectiveEquipmentOutput) *detection.Result {
	result := &detection.Result{Persons: make([]detection.Person, 0, len(out.Persons))}
	for _, p := range out.Persons {
		person := detection.Person{
			ID:         aws.ToInt32(p.Id),
			Confidence: aws.ToFloat32(p.Confidence),
			BodyParts:  make([]detection.BodyPart, 0, len(p.BodyParts)),
		}
		for _, bp := range p.BodyParts {
			part := detection.BodyPart{
				Name:                string(bp.Name),
				Confidence:          aws.ToFloat32(bp.Confidence),
				EquipmentDetections: make([]detection.EquipmentDetection, 0, len(bp.EquipmentDetections)),
			}
			for _, eq := range bp.EquipmentDetections {
				item := detection.EquipmentDetection{
					Type:       string(eq.Type),
					Confidence: aws.ToFloat32(eq.Confidence),
				}
				if eq.CoversBodyPart != nil {
					item.CoversBodyPart = eq.CoversBodyPart.Value
				}
				part.EquipmentDetections = append(part.EquipmentDetections, item)
			}
			person.BodyParts = append(person.BodyParts, part)
		}
		result.Persons = append(result.Persons, person)
	}
	return result
}

func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "ProvisionedThroughputExceededException", "LimitExceededException":
		return fmt.Errorf("%w: %w", detection.ErrThrottled, err)
	case "InvalidImageFormatException", "ImageTooLargeException", "InvalidS3ObjectException", "InvalidParameterException":
		return fmt.Errorf("%w: %w", detection.ErrInvalidImage, err)
	case "AccessDeniedException":
		return fmt.Errorf("%w: %w", detection.ErrAccessDenied, err)
	}
	return err
}
