package restful

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/okieraised/fatigue-agent/internal/api_response"
	"github.com/okieraised/fatigue-agent/internal/cerrors"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/tracer_client"
	"github.com/okieraised/fatigue-agent/internal/server/rest_server/services/v1/restful"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type SessionRouter struct {
	svc    restful.ISessionService
	logger *log.Logger
	tracer trace.Tracer
}

func NewSessionRouter(svc restful.ISessionService) *SessionRouter {
	logger := log.MustNewECSLogger()
	return &SessionRouter{
		svc:    svc,
		logger: logger,
		tracer: tracer_client.Tracer("session_http"),
	}
}

func (r *SessionRouter) Routes(engine *gin.RouterGroup) {
	routes := engine.Group("/session")
	routes.GET("/stats", r.stats)
	routes.GET("/profile", r.profile)
	routes.GET("/alerts", r.listAlerts)
	routes.GET("/alerts/:id", r.getAlert)
}

func (r *SessionRouter) stats(ctx *gin.Context) {
	rootCtx, span := r.tracer.Start(ctx, ctx.Request.URL.Path, trace.WithAttributes(attribute.KeyValue{
		Key:   constants.APIFieldRequestID,
		Value: attribute.StringValue(ctx.GetString(constants.APIFieldRequestID)),
	}))
	defer span.End()

	resp := api_response.New[any](ctx)
	r.logger.With(
		zap.String(constants.APIFieldRequestID, ctx.GetString(constants.APIFieldRequestID)),
	).Debug("Received new session stats request")

	// Handler
	_, cSpan := r.tracer.Start(rootCtx, "handler")
	result, appErr := r.svc.Stats(ctx, &restful.SessionStatsInput{TracerCtx: rootCtx, Tracer: r.tracer})
	if appErr != nil {
		cSpan.End()
		r.logger.Error(appErr.Error())
		resp.Populate(appErr.Code, appErr.Message, nil, nil, nil)
		ctx.JSON(cerrors.HTTPStatusOf(appErr), resp)
		return
	}
	cSpan.End()

	resp.Populate(result.Code, result.Message, result.Data, nil, nil)
	ctx.JSON(cerrors.HTTPStatusOf(nil), resp)
	return
}

func (r *SessionRouter) profile(ctx *gin.Context) {
	rootCtx, span := r.tracer.Start(ctx, ctx.Request.URL.Path, trace.WithAttributes(attribute.KeyValue{
		Key:   constants.APIFieldRequestID,
		Value: attribute.StringValue(ctx.GetString(constants.APIFieldRequestID)),
	}))
	defer span.End()

	resp := api_response.New[any](ctx)
	r.logger.With(
		zap.String(constants.APIFieldRequestID, ctx.GetString(constants.APIFieldRequestID)),
	).Debug("Received new session profile request")

	// Handler
	_, cSpan := r.tracer.Start(rootCtx, "handler")
	result, appErr := r.svc.Profile(ctx, &restful.SessionProfileInput{TracerCtx: rootCtx, Tracer: r.tracer})
	if appErr != nil {
		cSpan.End()
		r.logger.Error(appErr.Error())
		resp.Populate(appErr.Code, appErr.Message, nil, nil, nil)
		ctx.JSON(cerrors.HTTPStatusOf(appErr), resp)
		return
	}
	cSpan.End()

	resp.Populate(result.Code, result.Message, result.Data, nil, nil)
	ctx.JSON(cerrors.HTTPStatusOf(nil), resp)
	return
}

func (r *SessionRouter) listAlerts(ctx *gin.Context) {
	rootCtx, span := r.tracer.Start(ctx, ctx.Request.URL.Path, trace.WithAttributes(attribute.KeyValue{
		Key:   constants.APIFieldRequestID,
		Value: attribute.StringValue(ctx.GetString(constants.APIFieldRequestID)),
	}))
	defer span.End()

	resp := api_response.New[any](ctx)
	r.logger.With(
		zap.String(constants.APIFieldRequestID, ctx.GetString(constants.APIFieldRequestID)),
	).Debug("Received new alert history request")

	limit, _ := strconv.Atoi(ctx.Query("limit"))

	// Handler
	_, cSpan := r.tracer.Start(rootCtx, "handler")
	result, appErr := r.svc.ListAlerts(ctx, &restful.ListAlertsInput{TracerCtx: rootCtx, Tracer: r.tracer, Limit: limit})
	if appErr != nil {
		cSpan.End()
		r.logger.Error(appErr.Error())
		resp.Populate(appErr.Code, appErr.Message, nil, nil, nil)
		ctx.JSON(cerrors.HTTPStatusOf(appErr), resp)
		return
	}
	cSpan.End()

	resp.Populate(result.Code, result.Message, result.Data, nil, result.Count)
	ctx.JSON(cerrors.HTTPStatusOf(nil), resp)
	return
}

func (r *SessionRouter) getAlert(ctx *gin.Context) {
	rootCtx, span := r.tracer.Start(ctx, ctx.Request.URL.Path, trace.WithAttributes(attribute.KeyValue{
		Key:   constants.APIFieldRequestID,
		Value: attribute.StringValue(ctx.GetString(constants.APIFieldRequestID)),
	}))
	defer span.End()

	resp := api_response.New[any](ctx)
	r.logger.With(
		zap.String(constants.APIFieldRequestID, ctx.GetString(constants.APIFieldRequestID)),
	).Debug("Received new alert lookup request")

	// Handler
	_, cSpan := r.tracer.Start(rootCtx, "handler")
	result, appErr := r.svc.GetAlert(ctx, &restful.GetAlertInput{TracerCtx: rootCtx, Tracer: r.tracer, ID: ctx.Param("id")})
	if appErr != nil {
		cSpan.End()
		r.logger.Error(appErr.Error())
		resp.Populate(appErr.Code, appErr.Message, nil, nil, nil)
		ctx.JSON(cerrors.HTTPStatusOf(appErr), resp)
		return
	}
	cSpan.End()

	resp.Populate(result.Code, result.Message, result.Data, nil, nil)
	ctx.JSON(cerrors.HTTPStatusOf(nil), resp)
	return
}
