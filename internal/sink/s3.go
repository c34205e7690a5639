package sink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/utilities"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/okieraised/fatigue-agent/internal/vision/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	uploadTimeout   = 15 * time.Second
	snapshotQuality = 85
)

// SnapshotSink uploads a JPEG of the triggering frame when an alert reaches
// HIGH or CRITICAL. The upload runs on its own goroutine so the output stage
// never waits on object storage.
type SnapshotSink struct {
	client    *s3.Client
	bucket    string
	sessionID string
}

func NewSnapshotSink(client *s3.Client, bucket, sessionID string) *SnapshotSink {
	return &SnapshotSink{client: client, bucket: bucket, sessionID: sessionID}
}

func (s *SnapshotSink) PublishAlert(_ *alert.Event) {}

func (s *SnapshotSink) PublishSample(_ metrics.Sample) {}

func (s *SnapshotSink) PublishStatus(_ pipeline.Status) {}

func (s *SnapshotSink) PublishSnapshot(ev *alert.Event, frame *vision.Frame) {
	if ev == nil || frame == nil || ev.Level < alert.LevelHigh {
		return
	}

	body, err := utilities.EncodeGrayImage(frame.Width, frame.Height, 0, frame.Data, "jpeg", snapshotQuality)
	if err != nil {
		log.Default().Error(errors.Wrap(err, "failed to encode alert snapshot").Error())
		return
	}

	key := fmt.Sprintf("snapshots/%s/%s_%s.jpg", s.sessionID, ev.Timestamp.UTC().Format("20060102T150405Z"), ev.ID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		_, upErr := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(constants.ContentTypeJPEG),
			Metadata: map[string]string{
				"alert-level": ev.Level.String(),
				"event-id":    ev.ID,
			},
		})
		if upErr != nil {
			log.Default().Error(errors.Wrapf(upErr, "failed to upload snapshot [%s]", key).Error())
			return
		}
		log.Default().Info("Uploaded alert snapshot",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.String("level", ev.Level.String()),
		)
	}()
}
