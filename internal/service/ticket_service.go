package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/events"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	roles       repository.RoleRepository
	slaCfg      config.SLAConfig
	storageCfg  config.StorageConfig
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	RoleRepo       repository.RoleRepository
	SLAConfig      config.SLAConfig
	StorageConfig  config.StorageConfig
	Dispatcher     events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		roles:       deps.RoleRepo,
		slaCfg:      deps.SLAConfig,
		storageCfg:  deps.StorageConfig,
		dispatcher:  deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	OrganizationID string
	Title          string
	Description    string
	Category       string
	Priority       string
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	OrganizationID *string
	AssignedTo     *string
	Unassigned     bool
	Statuses       []string
	Priorities     []string
	Category       *string
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// TicketView is a ticket joined with its read-time SLA classification.
type TicketView struct {
	domain.Ticket
	SLA domain.SLABadge
}

// TicketDetail is a ticket with its visible thread and attachments.
type TicketDetail struct {
	TicketView
	Messages    []domain.TicketMessage
	Attachments []domain.TicketAttachment
}

// CreateTicket opens a ticket. Clients create within their own org;
// staff supply the org explicitly. The SLA deadline is stamped from the
// priority at creation time.
func (s *TicketService) CreateTicket(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	orgID := input.OrganizationID
	if !actor.IsStaff() {
		if actor.OrgID == nil {
			return nil, util.NewForbidden("no organization membership")
		}
		orgID = *actor.OrgID
	}
	if orgID == "" {
		return nil, util.NewValidationError("organization is required", nil)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, util.NewValidationError("title is required", nil)
	}

	priority := domain.TicketPriorityMedium
	if input.Priority != "" {
		parsed, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			return nil, util.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
		}
		priority = parsed
	}

	dueAt := time.Now().Add(s.slaCfg.DueIn(string(priority)))
	ticket := &domain.Ticket{
		OrganizationID:  orgID,
		CreatedByUserID: actor.UserID,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Category:        strings.TrimSpace(input.Category),
		Status:          domain.TicketStatusOpen,
		Priority:        priority,
		SLADueAt:        &dueAt,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketCreated,
		TicketID:    ticket.ID,
		ActorUserID: actor.UserID,
		Payload: events.TicketCreatedPayload{
			OrganizationID: ticket.OrganizationID,
			Title:          ticket.Title,
			Priority:       ticket.Priority,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the actor. Clients are pinned
// to their own org regardless of the requested filter.
func (s *TicketService) ListTickets(ctx context.Context, actor Actor, input TicketListInput) ([]TicketView, error) {
	filter := repository.TicketFilter{
		OrganizationID: input.OrganizationID,
		AssignedTo:     input.AssignedTo,
		Unassigned:     input.Unassigned,
		Category:       input.Category,
		SearchTerm:     input.SearchTerm,
		CreatedFrom:    input.CreatedFrom,
		CreatedTo:      input.CreatedTo,
		Limit:          input.Limit,
		Offset:         input.Offset,
	}
	for _, raw := range input.Statuses {
		status, ok := domain.ParseTicketStatus(raw)
		if !ok {
			return nil, util.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range input.Priorities {
		priority, ok := domain.ParseTicketPriority(raw)
		if !ok {
			return nil, util.NewValidationError("invalid priority", map[string]any{"priority": raw})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	if !actor.IsStaff() {
		if actor.OrgID == nil {
			return nil, util.NewForbidden("no organization membership")
		}
		filter.OrganizationID = actor.OrgID
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}

	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, util.MapError(err)
	}
	now := time.Now()
	views := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, TicketView{Ticket: t, SLA: domain.ClassifySLA(t.SLADueAt, t.Status, now)})
	}
	return views, nil
}

// GetTicket fetches a ticket with its thread. Clients only see tickets
// of their own org and never see internal notes.
func (s *TicketService) GetTicket(ctx context.Context, actor Actor, ticketID string) (*TicketDetail, error) {
	ticket, err := s.getAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !actor.IsStaff() {
		visible := make([]domain.TicketMessage, 0, len(msgs))
		for _, m := range msgs {
			if m.IsInternal {
				continue
			}
			visible = append(visible, m)
		}
		msgs = visible
	}

	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, util.MapError(err)
	}

	return &TicketDetail{
		TicketView:  TicketView{Ticket: *ticket, SLA: domain.ClassifySLA(ticket.SLADueAt, ticket.Status, time.Now())},
		Messages:    msgs,
		Attachments: attachments,
	}, nil
}

// UpdateStatus moves a ticket through the lifecycle. The transition
// allow-list is enforced here, at the write boundary, for every caller.
func (s *TicketService) UpdateStatus(ctx context.Context, actor Actor, ticketID, newStatusRaw string) (*domain.Ticket, error) {
	newStatus, ok := domain.ParseTicketStatus(newStatusRaw)
	if !ok {
		return nil, util.NewValidationError("invalid status", map[string]any{"status": newStatusRaw})
	}

	ticket, err := s.getAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(actor.Roles, ticket.Status, newStatus) {
		return nil, util.NewValidationError("status transition not allowed", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketStatusChanged,
		TicketID:    ticket.ID,
		ActorUserID: actor.UserID,
		Payload: events.TicketStatusChangedPayload{
			OrganizationID: ticket.OrganizationID,
			OldStatus:      oldStatus,
			NewStatus:      newStatus,
		},
	})
	return ticket, nil
}

// UpdatePriority changes urgency and restamps the SLA deadline from the
// ticket's creation time under the new priority. Tickets already at
// rest keep their deadline; there is nothing left to breach.
func (s *TicketService) UpdatePriority(ctx context.Context, actor Actor, ticketID, newPriorityRaw string) (*domain.Ticket, error) {
	newPriority, ok := domain.ParseTicketPriority(newPriorityRaw)
	if !ok {
		return nil, util.NewValidationError("invalid priority", map[string]any{"priority": newPriorityRaw})
	}

	ticket, err := s.getAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Priority = newPriority
	if !ticket.Status.IsTerminal() {
		dueAt := ticket.CreatedAt.Add(s.slaCfg.DueIn(string(newPriority)))
		ticket.SLADueAt = &dueAt
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}
	return ticket, nil
}

// Assign sets the assignee after verifying the target holds a staff
// role eligible for ticket work. Pass nil to unassign.
func (s *TicketService) Assign(ctx context.Context, actor Actor, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.getAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	if assigneeID != nil {
		assigneeRoles, err := s.roles.GetRoles(ctx, *assigneeID)
		if err != nil {
			return nil, util.MapError(err)
		}
		if !assigneeRoles.HasAny(domain.AssignableRoles...) {
			return nil, util.NewValidationError("assignee must hold a support or admin role", nil)
		}
	}

	ticket.AssignedToUserID = assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	if assigneeID != nil {
		s.publishEvent(ctx, events.Event{
			Type:        events.EventTicketAssigned,
			TicketID:    ticket.ID,
			ActorUserID: actor.UserID,
			Payload: events.TicketAssignedPayload{
				OrganizationID: ticket.OrganizationID,
				AssigneeUserID: assigneeID,
			},
		})
	}
	return ticket, nil
}

// BulkResult reports a bulk operation's outcome. Updated and Skipped
// partition the requested IDs.
type BulkResult struct {
	Updated []string
	Skipped []string
}

// BulkUpdateStatus applies a status change to many tickets. Tickets
// whose current status does not permit the transition for this actor
// are skipped rather than failing the batch.
func (s *TicketService) BulkUpdateStatus(ctx context.Context, actor Actor, ids []string, newStatusRaw string) (*BulkResult, error) {
	newStatus, ok := domain.ParseTicketStatus(newStatusRaw)
	if !ok {
		return nil, util.NewValidationError("invalid status", map[string]any{"status": newStatusRaw})
	}
	if len(ids) == 0 {
		return nil, util.NewValidationError("no ticket ids given", nil)
	}

	tickets, err := s.tickets.ListByIDs(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}

	result := &BulkResult{}
	found := make(map[string]struct{}, len(tickets))
	for _, t := range tickets {
		found[t.ID] = struct{}{}
		if domain.CanTransition(actor.Roles, t.Status, newStatus) {
			result.Updated = append(result.Updated, t.ID)
		} else {
			result.Skipped = append(result.Skipped, t.ID)
		}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			result.Skipped = append(result.Skipped, id)
		}
	}

	if len(result.Updated) > 0 {
		if err := s.tickets.BulkUpdateStatus(ctx, result.Updated, newStatus); err != nil {
			return nil, util.MapError(err)
		}
		for _, t := range tickets {
			if !containsID(result.Updated, t.ID) {
				continue
			}
			s.publishEvent(ctx, events.Event{
				Type:        events.EventTicketStatusChanged,
				TicketID:    t.ID,
				ActorUserID: actor.UserID,
				Payload: events.TicketStatusChangedPayload{
					OrganizationID: t.OrganizationID,
					OldStatus:      t.Status,
					NewStatus:      newStatus,
				},
			})
		}
	}
	return result, nil
}

// BulkAssign sets the assignee on many tickets at once.
func (s *TicketService) BulkAssign(ctx context.Context, actor Actor, ids []string, assigneeID *string) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, util.NewValidationError("no ticket ids given", nil)
	}
	if assigneeID != nil {
		assigneeRoles, err := s.roles.GetRoles(ctx, *assigneeID)
		if err != nil {
			return nil, util.MapError(err)
		}
		if !assigneeRoles.HasAny(domain.AssignableRoles...) {
			return nil, util.NewValidationError("assignee must hold a support or admin role", nil)
		}
	}

	tickets, err := s.tickets.ListByIDs(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}

	result := &BulkResult{}
	found := make(map[string]struct{}, len(tickets))
	for _, t := range tickets {
		found[t.ID] = struct{}{}
		result.Updated = append(result.Updated, t.ID)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			result.Skipped = append(result.Skipped, id)
		}
	}

	if len(result.Updated) > 0 {
		if err := s.tickets.BulkUpdateAssignee(ctx, result.Updated, assigneeID); err != nil {
			return nil, util.MapError(err)
		}
		if assigneeID != nil {
			for _, t := range tickets {
				s.publishEvent(ctx, events.Event{
					Type:        events.EventTicketAssigned,
					TicketID:    t.ID,
					ActorUserID: actor.UserID,
					Payload: events.TicketAssignedPayload{
						OrganizationID: t.OrganizationID,
						AssigneeUserID: assigneeID,
					},
				})
			}
		}
	}
	return result, nil
}

// AddMessage appends to the reply thread. Internal notes are staff-only
// and never produce a reply event.
func (s *TicketService) AddMessage(ctx context.Context, actor Actor, ticketID, body string, isInternal bool) (*domain.TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, util.NewValidationError("message body is required", nil)
	}
	if isInternal && !actor.IsStaff() {
		return nil, util.NewForbidden("internal notes are staff only")
	}

	ticket, err := s.getAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, util.NewValidationError("ticket is closed", nil)
	}

	msg := &domain.TicketMessage{
		TicketID:     ticket.ID,
		AuthorUserID: actor.UserID,
		IsInternal:   isInternal,
		Body:         body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, util.MapError(err)
	}

	if !isInternal {
		s.publishEvent(ctx, events.Event{
			Type:        events.EventTicketReply,
			TicketID:    ticket.ID,
			ActorUserID: actor.UserID,
			Payload: events.TicketReplyPayload{
				OrganizationID: ticket.OrganizationID,
				MessageID:      msg.ID,
				AuthorIsStaff:  actor.IsStaff(),
				BodyPreview:    bodyPreview(msg.Body, 120),
			},
		})
	}
	return msg, nil
}

// AttachmentInput defines metadata for a pending attachment.
type AttachmentInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// RegisterAttachment writes the pending metadata row before the blob
// upload. The returned storage key is where the client must upload; the
// row stays pending until ConfirmAttachment.
func (s *TicketService) RegisterAttachment(ctx context.Context, actor Actor, ticketID string, input AttachmentInput) (*domain.TicketAttachment, error) {
	fileName := path.Base(strings.TrimSpace(input.FileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, util.NewValidationError("file name is required", nil)
	}
	if input.SizeBytes <= 0 {
		return nil, util.NewValidationError("size must be positive", nil)
	}

	ticket, err := s.getAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	storageKey := fmt.Sprintf("%s/%s/%d-%s", ticket.OrganizationID, ticket.ID, time.Now().Unix(), fileName)
	if s.storageCfg.KeyPrefix != "" {
		storageKey = s.storageCfg.KeyPrefix + "/" + storageKey
	}
	att := &domain.TicketAttachment{
		TicketID:         ticket.ID,
		UploadedByUserID: actor.UserID,
		StorageKey:       storageKey,
		FileName:         fileName,
		MimeType:         input.MimeType,
		SizeBytes:        input.SizeBytes,
		Status:           domain.AttachmentStatusPending,
	}
	if err := s.attachments.Create(ctx, att); err != nil {
		return nil, util.MapError(err)
	}
	return att, nil
}

// UploadURL resolves where the client should PUT the blob for a
// registered attachment. Empty when no signing base is configured.
func (s *TicketService) UploadURL(att domain.TicketAttachment) string {
	if s.storageCfg.SignedURLBase == "" {
		return ""
	}
	return strings.TrimSuffix(s.storageCfg.SignedURLBase, "/") + "/" + att.StorageKey
}

// ConfirmAttachment marks an upload complete. Only the uploader may
// confirm their own pending row.
func (s *TicketService) ConfirmAttachment(ctx context.Context, actor Actor, attachmentID string) error {
	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return util.MapError(err)
	}
	if att.UploadedByUserID != actor.UserID {
		return util.NewForbidden("not the uploader")
	}
	if att.Status == domain.AttachmentStatusConfirmed {
		return nil
	}
	if err := s.attachments.Confirm(ctx, att.ID); err != nil {
		return util.MapError(err)
	}
	return nil
}

// getAccessible loads a ticket and enforces tenancy: staff see every
// ticket, clients only their own org's.
func (s *TicketService) getAccessible(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !actor.IsStaff() {
		if actor.OrgID == nil || ticket.OrganizationID != *actor.OrgID {
			return nil, util.NewNotFound("ticket", nil)
		}
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// bodyPreview truncates to at most max runes, never splitting a
// multi-byte character.
func bodyPreview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
