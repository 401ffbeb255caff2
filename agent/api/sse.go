package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/pkg/api"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/go-chi/chi/v5"
)

func upgradeSSE(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func sendSSE(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	return http.NewResponseController(w).Flush()
}

// streamFleet sends one fleet metrics event per sampling interval. Ticks
// during a runtime outage are skipped.
func streamFleet(svc agent.Service, interval time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		upgradeSSE(w)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			fm, err := svc.FleetMetrics(ctx)
			switch {
			case err == nil:
				if err := sendSSE(w, fm); err != nil {
					logger.Debug("Closed fleet metrics stream", slog.Any("error", err))

					return
				}
			case !errors.Is(err, pkgerrors.ErrUnreachable):
				logger.Warn("Failed to compute fleet metrics for stream", slog.Any("error", err))
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}

type logLineEvent struct {
	Line string `json:"line"`
}

// streamLogs follows a container's logs, one event per line.
func streamLogs(svc agent.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tail, err := api.ReadUintQuery(r, api.TailKey, api.DefStreamTail)
		if err != nil {
			api.EncodeError(ctx, errors.Join(api.ErrValidation, err), w)

			return
		}
		req := logsReq{id: chi.URLParam(r, idKey), tail: tail}
		if err := req.validate(); err != nil {
			api.EncodeError(ctx, errors.Join(api.ErrValidation, err), w)

			return
		}

		lines, err := svc.StreamContainerLogs(ctx, req.id, int(req.tail))
		if err != nil {
			api.EncodeError(ctx, err, w)

			return
		}

		upgradeSSE(w)

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					return
				}
				if err := sendSSE(w, logLineEvent{Line: line}); err != nil {
					logger.Debug("Closed container logs stream", slog.String("container_id", req.id), slog.Any("error", err))

					return
				}
			}
		}
	}
}

// streamStats sends every sample of one container recorded after the
// stream was opened.
func streamStats(svc agent.Service, interval time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, idKey)

		if _, err := svc.GetContainer(ctx, id); err != nil {
			api.EncodeError(ctx, err, w)

			return
		}

		var since time.Time
		if latest, err := svc.LatestSample(ctx, id); err == nil {
			since = latest.Timestamp.Add(time.Nanosecond)
		}

		upgradeSSE(w)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			samples, err := svc.ContainerStats(ctx, id, since)
			if err != nil {
				if !errors.Is(err, pkgerrors.ErrUnreachable) {
					logger.Warn("Failed to read container stats for stream", slog.String("container_id", id), slog.Any("error", err))
				}

				continue
			}
			for _, s := range samples {
				if err := sendSSE(w, s); err != nil {
					logger.Debug("Closed container stats stream", slog.String("container_id", id), slog.Any("error", err))

					return
				}
				since = s.Timestamp.Add(time.Nanosecond)
			}
		}
	}
}
