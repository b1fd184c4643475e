package aitime

import (
	"context"
	"time"
)

// Service implements TimeService with rule-based parsing.
type Service struct {
	loc *time.Location
	now func() time.Time
}

// NewService creates a new time service for the given timezone.
func NewService(loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		loc: loc,
		now: time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	return &Service{loc: s.loc, now: now}
}

// Normalize resolves a natural-language date or time expression.
func (s *Service) Normalize(_ context.Context, input string) (time.Time, error) {
	return NewParser(s.loc).WithClock(s.now).Parse(input)
}

// Now returns the current time in the service timezone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Location returns the service timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Ensure Service implements TimeService
var _ TimeService = (*Service)(nil)
