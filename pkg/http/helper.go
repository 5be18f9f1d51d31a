package http

import (
	"net/http"
	"strconv"
	"time"

	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// ExtractTimeWindow parses optional "from"/"to" RFC 3339 query parameters.
// Nil means unbounded on that side.
func ExtractTimeWindow(r *http.Request) (*time.Time, *time.Time, error) {
	query := r.URL.Query()

	var from, to *time.Time
	if s := query.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("invalid from parameter, expected RFC 3339: " + s)
		}
		from = &t
	}
	if s := query.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("invalid to parameter, expected RFC 3339: " + s)
		}
		to = &t
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, nil, apperrors.InvalidInput("to must be after from")
	}
	return from, to, nil
}

func ExtractFloat(r *http.Request, name string) (float64, bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, true, nil
}
