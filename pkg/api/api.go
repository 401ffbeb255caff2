package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/absmach/metricus/pkg/errors"
	kithttp "github.com/go-kit/kit/transport/http"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	SinceKey  = "since"
	FromKey   = "from"
	ToKey     = "to"
	TailKey   = "tail"

	DefOffset = 0
	DefLimit  = 100
	DefTail   = 100

	DefStreamTail = 15

	MaxLimitSize = 1000
	MaxTailSize  = 10000

	ContentType = "application/json"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidQuery = errors.New("invalid query parameter")
	ErrLimitSize    = errors.New("limit exceeds maximum")
	ErrInvalidRange = errors.New("from is after to")
)

// Response carries the status code and headers of an endpoint result.
type Response interface {
	Code() int
	Headers() map[string]string
	Empty() bool
}

type errorRes struct {
	Err string `json:"error"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	w.Header().Set("Content-Type", ContentType)
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeError maps err to a status code and writes {"error": message}.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)

	status, msg := classify(err)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorRes{Err: msg}); err != nil {
		slog.Error("Failed to encode error response", slog.Any("error", err))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, pkgerrors.ErrUnreachable):
		return http.StatusServiceUnavailable, pkgerrors.ErrUnreachable.Error()
	case errors.Is(err, pkgerrors.ErrArchiveDisabled):
		return http.StatusNotFound, pkgerrors.ErrArchiveDisabled.Error()
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, pkgerrors.ErrNotFound.Error()
	case errors.Is(err, ErrValidation),
		errors.Is(err, pkgerrors.ErrMalformedEntity),
		errors.Is(err, pkgerrors.ErrMissingID):
		return http.StatusBadRequest, validationMessage(err)
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// validationMessage drops the generic ErrValidation marker from joined errors.
func validationMessage(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if !errors.Is(e, ErrValidation) {
				return e.Error()
			}
		}
	}

	return err.Error()
}

// LoggingErrorEncoder logs server side failures before encoding them.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		if status, _ := classify(err); status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			logger.Error("Request failed", slog.Any("error", err))
		}
		enc(ctx, err, w)
	}
}

func ReadUintQuery(r *http.Request, key string, def uint64) (uint64, error) {
	vals := r.URL.Query()[key]
	if len(vals) == 0 || vals[0] == "" {
		return def, nil
	}
	if len(vals) > 1 {
		return 0, errors.Join(ErrInvalidQuery, errors.New(key))
	}

	v, err := strconv.ParseUint(vals[0], 10, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidQuery, err)
	}

	return v, nil
}

// ReadTimeQuery accepts RFC 3339 timestamps or Unix milliseconds.
func ReadTimeQuery(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}

	if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidQuery, err)
	}

	return t, nil
}
