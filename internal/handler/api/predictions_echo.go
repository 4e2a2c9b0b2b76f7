package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"EVDemand/internal/domain/models"
	domrepo "EVDemand/internal/domain/repository"
	"EVDemand/internal/services/features"
	"EVDemand/internal/usecase"
	xhttp "EVDemand/pkg/http"
	"EVDemand/pkg/http/middleware"
	xlogger "EVDemand/pkg/logger"
)

// predictionReply is the wire form of a processed request: the record id plus
// exactly one of prediction or error.
type predictionReply struct {
	ID string `json:"id,omitempty"`
	models.PredictionResult
}

type historyRequest struct {
	County string `query:"county"`
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=500"`
}

// PredictionsEchoHandler serves the prediction API over echo.
type PredictionsEchoHandler struct {
	logger    *xlogger.Logger
	processor *usecase.RequestProcessor
	store     domrepo.PredictionStore
	limiter   middleware.Allower
	ws        *PredictionsWSHandler
}

// NewPredictionsEchoHandler creates the handler. store, limiter and ws may be nil.
func NewPredictionsEchoHandler(
	logger *xlogger.Logger,
	processor *usecase.RequestProcessor,
	store domrepo.PredictionStore,
	limiter middleware.Allower,
	ws *PredictionsWSHandler,
) *PredictionsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PredictionsEchoHandler{logger: logger, processor: processor, store: store, limiter: limiter, ws: ws}
}

func (h *PredictionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/counties", h.Counties)
	g.GET("/features", h.Features)
	g.GET("/predictions/history", h.History)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter, rateLimited))
	}
	g.POST("/predictions", h.Predict, mw...)
	if h.ws != nil {
		g.GET("/ws/predictions", h.ws.Serve, mw...)
	}
}

func rateLimited(c echo.Context) error {
	return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded").WithParam("client", c.RealIP()))
}

func (h *PredictionsEchoHandler) Predict(c echo.Context) error {
	req := models.PredictionRequest{}
	if verr := xhttp.BindRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec := h.processor.Process(c.Request().Context(), usecase.SourceHTTP, req)
	if rec.Result.OK() {
		return xhttp.SuccessResponse(c, predictionReply{ID: rec.ID, PredictionResult: rec.Result})
	}
	return xhttp.AppErrorResponse(c, resultError(rec))
}

// resultError maps a failed result onto the HTTP error envelope.
func resultError(rec *models.PredictionRecord) *xhttp.AppError {
	e := rec.Result.Error
	var appErr *xhttp.AppError
	switch e.Kind {
	case models.ErrorKindValidation:
		appErr = xhttp.UnprocessableError("", e.Message)
	case models.ErrorKindModel:
		appErr = xhttp.BadGatewayError(e.Message)
	default:
		appErr = xhttp.InternalError(e.Message)
	}
	return appErr.WithParam("id", rec.ID).WithParam("kind", string(e.Kind))
}

func (h *PredictionsEchoHandler) Counties(c echo.Context) error {
	counties := h.processor.Service().Counties()
	return xhttp.ListResponse(c, counties, int64(len(counties)))
}

// Features returns the derived feature mapping without calling the model.
func (h *PredictionsEchoHandler) Features(c echo.Context) error {
	req, verr := bindFeaturesQuery(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req = h.processor.Prepare(usecase.SourceHTTP, req)

	f, err := h.processor.Service().Features(req)
	if err != nil {
		var verr *features.ValidationError
		if errors.As(err, &verr) {
			errs := make([]*xhttp.AppError, 0, len(verr.Fields))
			for _, fe := range verr.Fields {
				errs = append(errs, xhttp.UnprocessableError(fe.Field, fe.Message))
			}
			return xhttp.DataResponse(c, http.StatusUnprocessableEntity, errs)
		}
		h.logger.Error("features error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"county":     req.County,
		"as_of_date": req.AsOfDate,
		"features":   f,
	})
}

func (h *PredictionsEchoHandler) History(c echo.Context) error {
	req := &historyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("prediction history requires the clickhouse audit backend"))
	}

	recs, err := h.store.Recent(c.Request().Context(), req.County, req.Limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.String("county", req.County), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("prediction history unavailable").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

// bindFeaturesQuery reads a request from query params. Absent totals stay nil
// so the builder can tell a missing value from zero.
func bindFeaturesQuery(c echo.Context) (models.PredictionRequest, []xhttp.ValidationError) {
	req := models.PredictionRequest{
		County:   c.QueryParam("county"),
		AsOfDate: c.QueryParam("as_of_date"),
	}
	var errs []xhttp.ValidationError
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"current_total", &req.CurrentTotal},
		{"lag1", &req.Lag1},
		{"lag2", &req.Lag2},
		{"lag3", &req.Lag3},
	} {
		raw := c.QueryParam(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, xhttp.ValidationError{Code: "ERR_BIND", Field: f.name, Message: f.name + " must be a number"})
			continue
		}
		*f.dst = &v
	}
	return req, errs
}
