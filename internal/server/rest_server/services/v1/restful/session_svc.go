package restful

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/okieraised/fatigue-agent/internal/api_response"
	"github.com/okieraised/fatigue-agent/internal/cerrors"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/detection/history"
	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultAlertLimit = 20

type ISessionService interface {
	Stats(ctx *gin.Context, input *SessionStatsInput) (*api_response.BaseOutput, *cerrors.AppError)
	Profile(ctx *gin.Context, input *SessionProfileInput) (*api_response.BaseOutput, *cerrors.AppError)
	ListAlerts(ctx *gin.Context, input *ListAlertsInput) (*api_response.BaseOutput, *cerrors.AppError)
	GetAlert(ctx *gin.Context, input *GetAlertInput) (*api_response.BaseOutput, *cerrors.AppError)
}

// SessionService serves the live detection session: counters, active
// threshold profile and the recent alert history.
type SessionService struct {
	pipe   *pipeline.Pipeline
	store  *history.Store
	prof   profile.Profile
	logger *log.Logger
}

func NewSessionService(options ...func(*SessionService)) *SessionService {
	svc := &SessionService{}
	for _, opt := range options {
		opt(svc)
	}
	logger := log.MustNewECSLogger()
	svc.logger = logger
	return svc
}

func WithPipeline(p *pipeline.Pipeline) func(*SessionService) {
	return func(svc *SessionService) {
		svc.pipe = p
	}
}

func WithHistoryStore(store *history.Store) func(*SessionService) {
	return func(svc *SessionService) {
		svc.store = store
	}
}

func WithProfile(prof profile.Profile) func(*SessionService) {
	return func(svc *SessionService) {
		svc.prof = prof
	}
}

type SessionStatsInput struct {
	TracerCtx context.Context
	Tracer    trace.Tracer
}

func (svc *SessionService) Stats(ctx *gin.Context, input *SessionStatsInput) (*api_response.BaseOutput, *cerrors.AppError) {
	_, span := input.Tracer.Start(input.TracerCtx, "session-stats-handler")
	defer span.End()

	if svc.pipe == nil {
		return nil, cerrors.ErrPipelineStopped
	}

	resp := &api_response.BaseOutput{
		Code:    cerrors.OK.Code,
		Message: cerrors.OK.Message,
		Data:    svc.pipe.Stats(),
	}
	return resp, nil
}

type SessionProfileInput struct {
	TracerCtx context.Context
	Tracer    trace.Tracer
}

func (svc *SessionService) Profile(ctx *gin.Context, input *SessionProfileInput) (*api_response.BaseOutput, *cerrors.AppError) {
	_, span := input.Tracer.Start(input.TracerCtx, "session-profile-handler")
	defer span.End()

	resp := &api_response.BaseOutput{
		Code:    cerrors.OK.Code,
		Message: cerrors.OK.Message,
		Data:    svc.prof,
	}
	return resp, nil
}

type ListAlertsInput struct {
	TracerCtx context.Context
	Tracer    trace.Tracer
	Limit     int
}

func (svc *SessionService) ListAlerts(ctx *gin.Context, input *ListAlertsInput) (*api_response.BaseOutput, *cerrors.AppError) {
	_, span := input.Tracer.Start(input.TracerCtx, "list-alerts-handler")
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}

	events := svc.store.Recent(limit)
	resp := &api_response.BaseOutput{
		Code:    cerrors.OK.Code,
		Message: cerrors.OK.Message,
		Data:    events,
		Count:   len(events),
	}
	return resp, nil
}

type GetAlertInput struct {
	TracerCtx context.Context
	Tracer    trace.Tracer
	ID        string
}

func (svc *SessionService) GetAlert(ctx *gin.Context, input *GetAlertInput) (*api_response.BaseOutput, *cerrors.AppError) {
	_, span := input.Tracer.Start(input.TracerCtx, "get-alert-handler")
	defer span.End()

	ev, ok := svc.store.Get(input.ID)
	if !ok {
		svc.logger.With(
			zap.String(constants.APIFieldRequestID, ctx.GetString(constants.APIFieldRequestID)),
		).Debug("Alert event not found or expired")
		return nil, cerrors.ErrNotFound
	}

	resp := &api_response.BaseOutput{
		Code:    cerrors.OK.Code,
		Message: cerrors.OK.Message,
		Data:    ev,
	}
	return resp, nil
}
