package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/pkg/api"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	BasePath = "/api/v1"

	idKey = "containerID"
)

// MakeHandler returns the HTTP handler of the agent. interval paces the
// event streams.
func MakeHandler(svc agent.Service, interval time.Duration, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route(BasePath, func(r chi.Router) {
		r.Use(requireRuntime(svc))

		r.Route("/containers", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				listContainersEndpoint(svc),
				decodeListContainersReq,
				api.EncodeResponse,
				opts...,
			), "list-containers").ServeHTTP)
			r.Route("/{containerID}", func(r chi.Router) {
				r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
					getContainerEndpoint(svc),
					decodeEntityReq,
					api.EncodeResponse,
					opts...,
				), "get-container").ServeHTTP)
				r.Get("/stats", otelhttp.NewHandler(kithttp.NewServer(
					containerStatsEndpoint(svc),
					decodeStatsReq,
					api.EncodeResponse,
					opts...,
				), "container-stats").ServeHTTP)
				r.Get("/stats/events", streamStats(svc, interval, logger))
				r.Get("/history", otelhttp.NewHandler(kithttp.NewServer(
					containerHistoryEndpoint(svc),
					decodeHistoryReq,
					api.EncodeResponse,
					opts...,
				), "container-history").ServeHTTP)
				r.Get("/logs", otelhttp.NewHandler(kithttp.NewServer(
					containerLogsEndpoint(svc),
					decodeLogsReq,
					api.EncodeResponse,
					opts...,
				), "container-logs").ServeHTTP)
				r.Get("/logs/events", streamLogs(svc, logger))
			})
		})

		r.Get("/metrics", otelhttp.NewHandler(kithttp.NewServer(
			fleetMetricsEndpoint(svc),
			kithttp.NopRequestDecoder,
			api.EncodeResponse,
			opts...,
		), "fleet-metrics").ServeHTTP)
		r.Get("/metrics/events", streamFleet(svc, interval, logger))
	})

	mux.Get("/health", api.Health("metricus", instanceID, svc.Health))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// requireRuntime answers 503 on every route while the container runtime
// is unreachable.
func requireRuntime(svc agent.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Health(r.Context()); err != nil {
				api.EncodeError(r.Context(), err, w)

				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeListContainersReq(_ context.Context, _ *http.Request) (any, error) {
	return listContainersReq{}, nil
}

func decodeEntityReq(_ context.Context, r *http.Request) (any, error) {
	return entityReq{
		id: chi.URLParam(r, idKey),
	}, nil
}

func decodeStatsReq(_ context.Context, r *http.Request) (any, error) {
	since, err := api.ReadTimeQuery(r, api.SinceKey)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return statsReq{
		id:    chi.URLParam(r, idKey),
		since: since,
	}, nil
}

func decodeHistoryReq(_ context.Context, r *http.Request) (any, error) {
	from, err := api.ReadTimeQuery(r, api.FromKey)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}
	to, err := api.ReadTimeQuery(r, api.ToKey)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}
	o, err := api.ReadUintQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}
	l, err := api.ReadUintQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return historyReq{
		id:     chi.URLParam(r, idKey),
		from:   from,
		to:     to,
		offset: o,
		limit:  l,
	}, nil
}

func decodeLogsReq(_ context.Context, r *http.Request) (any, error) {
	tail, err := api.ReadUintQuery(r, api.TailKey, api.DefTail)
	if err != nil {
		return nil, errors.Join(api.ErrValidation, err)
	}

	return logsReq{
		id:   chi.URLParam(r, idKey),
		tail: tail,
	}, nil
}
