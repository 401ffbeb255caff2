package api

import (
	"context"
	"errors"

	"github.com/absmach/metricus/agent"
	"github.com/absmach/metricus/pkg/api"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func listContainersEndpoint(svc agent.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listContainersReq)
		if !ok {
			return nil, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nil, errors.Join(api.ErrValidation, err)
		}

		cs, err := svc.ListContainers(ctx)
		if err != nil {
			return nil, err
		}

		return listContainersRes(cs), nil
	}
}

func getContainerEndpoint(svc agent.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return nil, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nil, errors.Join(api.ErrValidation, err)
		}

		c, err := svc.GetContainer(ctx, req.id)
		if err != nil {
			return nil, err
		}

		return containerRes{Container: c}, nil
	}
}

func containerStatsEndpoint(svc agent.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(statsReq)
		if !ok {
			return nil, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nil, errors.Join(api.ErrValidation, err)
		}

		samples, err := svc.ContainerStats(ctx, req.id, req.since)
		if err != nil {
			return nil, err
		}

		return statsRes(samples), nil
	}
}

func fleetMetricsEndpoint(svc agent.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		fm, err := svc.FleetMetrics(ctx)
		if err != nil {
			return nil, err
		}

		return fleetRes{FleetMetrics: fm}, nil
	}
}

func containerHistoryEndpoint(svc agent.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(historyReq)
		if !ok {
			return nil, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nil, errors.Join(api.ErrValidation, err)
		}

		page, err := svc.ContainerHistory(ctx, req.id, req.from, req.to, req.offset, req.limit)
		if err != nil {
			return nil, err
		}

		return historyRes{SamplePage: page}, nil
	}
}

func containerLogsEndpoint(svc agent.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(logsReq)
		if !ok {
			return nil, errors.Join(api.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return nil, errors.Join(api.ErrValidation, err)
		}

		lines, err := svc.ContainerLogs(ctx, req.id, int(req.tail))
		if err != nil {
			return nil, err
		}
		if lines == nil {
			lines = []string{}
		}

		return logsRes{ID: req.id, Lines: lines}, nil
	}
}
