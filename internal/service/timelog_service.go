package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// TimeLogService records staff work hours against tickets. Every
// mutation recomputes the owning allocation's used-hours counter in the
// same transaction, so the ledger never drifts from its source rows.
type TimeLogService struct {
	timeLogs repository.TimeLogRepository
	tickets  repository.TicketRepository
}

// NewTimeLogService constructs the service.
func NewTimeLogService(timeLogs repository.TimeLogRepository, tickets repository.TicketRepository) *TimeLogService {
	return &TimeLogService{timeLogs: timeLogs, tickets: tickets}
}

// TimeLogInput describes a log entry payload.
type TimeLogInput struct {
	Hours       decimal.Decimal
	Description string
	LoggedAt    *time.Time
}

// LogTime records hours worked on a ticket.
func (s *TimeLogService) LogTime(ctx context.Context, actor Actor, ticketID string, input TimeLogInput) (*domain.TicketTimeLog, error) {
	if !input.Hours.IsPositive() {
		return nil, util.NewValidationError("hours must be positive", map[string]any{"hours": input.Hours})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}

	loggedAt := time.Now()
	if input.LoggedAt != nil {
		loggedAt = *input.LoggedAt
	}
	log := &domain.TicketTimeLog{
		TicketID:    ticket.ID,
		UserID:      actor.UserID,
		Hours:       input.Hours,
		Description: strings.TrimSpace(input.Description),
		LoggedAt:    loggedAt,
	}
	if err := s.timeLogs.Create(ctx, ticket.OrganizationID, log); err != nil {
		return nil, util.MapError(err)
	}
	return log, nil
}

// UpdateTimeLog edits hours or description. Only the author may edit
// their own entries; the check happens here, not in the client.
func (s *TimeLogService) UpdateTimeLog(ctx context.Context, actor Actor, logID string, input TimeLogInput) (*domain.TicketTimeLog, error) {
	if !input.Hours.IsPositive() {
		return nil, util.NewValidationError("hours must be positive", map[string]any{"hours": input.Hours})
	}

	log, err := s.timeLogs.GetByID(ctx, logID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if log.UserID != actor.UserID {
		return nil, util.NewForbidden("only the author may edit a time log")
	}

	ticket, err := s.tickets.GetByID(ctx, log.TicketID)
	if err != nil {
		return nil, util.MapError(err)
	}

	log.Hours = input.Hours
	log.Description = strings.TrimSpace(input.Description)
	if input.LoggedAt != nil {
		log.LoggedAt = *input.LoggedAt
	}
	if err := s.timeLogs.Update(ctx, ticket.OrganizationID, log); err != nil {
		return nil, util.MapError(err)
	}
	return log, nil
}

// DeleteTimeLog removes an entry. Author-only, like edits.
func (s *TimeLogService) DeleteTimeLog(ctx context.Context, actor Actor, logID string) error {
	log, err := s.timeLogs.GetByID(ctx, logID)
	if err != nil {
		return util.MapError(err)
	}
	if log.UserID != actor.UserID {
		return util.NewForbidden("only the author may delete a time log")
	}

	ticket, err := s.tickets.GetByID(ctx, log.TicketID)
	if err != nil {
		return util.MapError(err)
	}
	if err := s.timeLogs.Delete(ctx, ticket.OrganizationID, log.ID); err != nil {
		return util.MapError(err)
	}
	return nil
}

// ListForTicket returns the entries and their total for one ticket.
func (s *TimeLogService) ListForTicket(ctx context.Context, ticketID string) ([]domain.TicketTimeLog, decimal.Decimal, error) {
	logs, err := s.timeLogs.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, decimal.Zero, util.MapError(err)
	}
	total, err := s.timeLogs.SumForTicket(ctx, ticketID)
	if err != nil {
		return nil, decimal.Zero, util.MapError(err)
	}
	return logs, total, nil
}
