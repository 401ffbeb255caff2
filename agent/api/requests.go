package api

import (
	"time"

	"github.com/absmach/metricus/pkg/api"
	pkgerrors "github.com/absmach/metricus/pkg/errors"
)

type listContainersReq struct{}

func (req listContainersReq) validate() error {
	return nil
}

type entityReq struct {
	id string
}

func (req entityReq) validate() error {
	if req.id == "" {
		return pkgerrors.ErrMissingID
	}

	return nil
}

type statsReq struct {
	id    string
	since time.Time
}

func (req statsReq) validate() error {
	if req.id == "" {
		return pkgerrors.ErrMissingID
	}

	return nil
}

type historyReq struct {
	id       string
	from, to time.Time
	offset   uint64
	limit    uint64
}

func (req historyReq) validate() error {
	if req.id == "" {
		return pkgerrors.ErrMissingID
	}
	if req.limit > api.MaxLimitSize {
		return api.ErrLimitSize
	}
	if !req.to.IsZero() && req.from.After(req.to) {
		return api.ErrInvalidRange
	}

	return nil
}

type logsReq struct {
	id   string
	tail uint64
}

func (req logsReq) validate() error {
	if req.id == "" {
		return pkgerrors.ErrMissingID
	}
	if req.tail > api.MaxTailSize {
		return api.ErrLimitSize
	}

	return nil
}
