// Package rpc serves the aggregation engine over Connect.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/service"
	"github.com/mmynk/dormmess/internal/storage"
)

// AggregationServiceName is the fully-qualified name of the service.
const AggregationServiceName = "dorm.v1.AggregationService"

// Procedure paths, used as the mux pattern suffix and in metrics.
const (
	AggregationServiceRecomputeProcedure               = "/" + AggregationServiceName + "/Recompute"
	AggregationServiceListMealRatesProcedure           = "/" + AggregationServiceName + "/ListMealRates"
	AggregationServiceListOverallCalculationsProcedure = "/" + AggregationServiceName + "/ListOverallCalculations"
	AggregationServicePreviewProcedure                 = "/" + AggregationServiceName + "/Preview"
)

// AggregationServer implements the Connect AggregationService.
type AggregationServer struct {
	aggregation *service.AggregationService
}

// NewAggregationServer creates a new AggregationServer.
func NewAggregationServer(aggregation *service.AggregationService) *AggregationServer {
	return &AggregationServer{aggregation: aggregation}
}

// Recompute rebuilds the requested derived tables.
func (s *AggregationServer) Recompute(ctx context.Context, req *connect.Request[RecomputeRequest]) (*connect.Response[RecomputeResponse], error) {
	slog.Info("Recompute request received", "tables", req.Msg.Tables)

	tables := req.Msg.Tables
	if len(tables) == 0 {
		tables = []string{service.TableMealRate, service.TableOverall}
	}
	for _, table := range tables {
		if table != service.TableMealRate && table != service.TableOverall {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown table %q", table))
		}
	}

	var (
		result *service.RecomputeResult
		err    error
	)
	switch {
	case slices.Contains(tables, service.TableMealRate) && slices.Contains(tables, service.TableOverall):
		result, err = s.aggregation.Recompute(ctx)
	case slices.Contains(tables, service.TableMealRate):
		result, err = s.aggregation.RecomputeMealRates(ctx)
	default:
		result, err = s.aggregation.RecomputeOverall(ctx)
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecomputeResponse{Result: result}), nil
}

// ListMealRates returns the persisted meal_rate rows.
func (s *AggregationServer) ListMealRates(ctx context.Context, req *connect.Request[ListMealRatesRequest]) (*connect.Response[ListMealRatesResponse], error) {
	rates, err := s.aggregation.ListMealRates(ctx)
	if err != nil {
		slog.Error("ListMealRates failed", "error", err)
		return nil, toConnectError(err)
	}
	if rates == nil {
		rates = []*models.MealRate{}
	}
	return connect.NewResponse(&ListMealRatesResponse{MealRates: rates}), nil
}

// ListOverallCalculations returns the persisted overall_calculation rows.
func (s *AggregationServer) ListOverallCalculations(ctx context.Context, req *connect.Request[ListOverallCalculationsRequest]) (*connect.Response[ListOverallCalculationsResponse], error) {
	calcs, err := s.aggregation.ListOverall(ctx)
	if err != nil {
		slog.Error("ListOverallCalculations failed", "error", err)
		return nil, toConnectError(err)
	}
	if calcs == nil {
		calcs = []*models.OverallCalculation{}
	}
	return connect.NewResponse(&ListOverallCalculationsResponse{OverallCalculations: calcs}), nil
}

// Preview computes an unpersisted statement for a date range.
func (s *AggregationServer) Preview(ctx context.Context, req *connect.Request[PreviewRequest]) (*connect.Response[PreviewResponse], error) {
	slog.Info("Preview request received", "from", req.Msg.From, "to", req.Msg.To)

	var period storage.Period
	for _, b := range []struct {
		value string
		dst   *models.Date
	}{
		{req.Msg.From, &period.From},
		{req.Msg.To, &period.To},
	} {
		if b.value == "" {
			continue
		}
		d, err := models.ParseDate(b.value)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		*b.dst = d
	}

	summary, err := s.aggregation.Preview(ctx, period)
	if err != nil {
		slog.Error("Preview failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PreviewResponse{Summary: summary}), nil
}

// NewAggregationServiceHandler builds an HTTP handler serving every
// AggregationService procedure. It returns the path to mount it on.
func NewAggregationServiceHandler(s *AggregationServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AggregationServiceRecomputeProcedure,
		connect.NewUnaryHandler(AggregationServiceRecomputeProcedure, s.Recompute, opts...))
	mux.Handle(AggregationServiceListMealRatesProcedure,
		connect.NewUnaryHandler(AggregationServiceListMealRatesProcedure, s.ListMealRates, opts...))
	mux.Handle(AggregationServiceListOverallCalculationsProcedure,
		connect.NewUnaryHandler(AggregationServiceListOverallCalculationsProcedure, s.ListOverallCalculations, opts...))
	mux.Handle(AggregationServicePreviewProcedure,
		connect.NewUnaryHandler(AggregationServicePreviewProcedure, s.Preview, opts...))

	return "/" + AggregationServiceName + "/", mux
}

// AggregationServiceClient calls a remote AggregationService.
type AggregationServiceClient struct {
	recompute   *connect.Client[RecomputeRequest, RecomputeResponse]
	listRates   *connect.Client[ListMealRatesRequest, ListMealRatesResponse]
	listOverall *connect.Client[ListOverallCalculationsRequest, ListOverallCalculationsResponse]
	preview     *connect.Client[PreviewRequest, PreviewResponse]
}

// NewAggregationServiceClient creates a client for the service at baseURL.
func NewAggregationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AggregationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &AggregationServiceClient{
		recompute:   connect.NewClient[RecomputeRequest, RecomputeResponse](httpClient, baseURL+AggregationServiceRecomputeProcedure, opts...),
		listRates:   connect.NewClient[ListMealRatesRequest, ListMealRatesResponse](httpClient, baseURL+AggregationServiceListMealRatesProcedure, opts...),
		listOverall: connect.NewClient[ListOverallCalculationsRequest, ListOverallCalculationsResponse](httpClient, baseURL+AggregationServiceListOverallCalculationsProcedure, opts...),
		preview:     connect.NewClient[PreviewRequest, PreviewResponse](httpClient, baseURL+AggregationServicePreviewProcedure, opts...),
	}
}

func (c *AggregationServiceClient) Recompute(ctx context.Context, req *connect.Request[RecomputeRequest]) (*connect.Response[RecomputeResponse], error) {
	return c.recompute.CallUnary(ctx, req)
}

func (c *AggregationServiceClient) ListMealRates(ctx context.Context, req *connect.Request[ListMealRatesRequest]) (*connect.Response[ListMealRatesResponse], error) {
	return c.listRates.CallUnary(ctx, req)
}

func (c *AggregationServiceClient) ListOverallCalculations(ctx context.Context, req *connect.Request[ListOverallCalculationsRequest]) (*connect.Response[ListOverallCalculationsResponse], error) {
	return c.listOverall.CallUnary(ctx, req)
}

func (c *AggregationServiceClient) Preview(ctx context.Context, req *connect.Request[PreviewRequest]) (*connect.Response[PreviewResponse], error) {
	return c.preview.CallUnary(ctx, req)
}

// toConnectError maps service and storage errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return connect.NewError(connect.CodeInvalidArgument, errors.New(strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": ")))
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
