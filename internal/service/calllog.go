package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"template_purifier/internal/models"
	"template_purifier/internal/repository"
)

type CallLogService struct {
	callRepo repository.CallRepo
}

func NewCallLogService(callRepo repository.CallRepo) *CallLogService {
	return &CallLogService{callRepo: callRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeDomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}
	return from, to, normalizeDomain(f.Domain), nil
}

func (s *CallLogService) List(ctx context.Context, f LogFilter) ([]models.ServiceCall, error) {
	from, to, domain, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.callRepo.List(ctx, from, to, domain)
}
