package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/payment"
	"github.com/MrJamesThe3rd/labtrack/internal/pricing"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=order
type Repository interface {
	Find(ctx context.Context, filter Filter) ([]*Order, error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByCode resolves a scanned code: an order id or an external reference.
	FindByCode(ctx context.Context, code string) (*Order, error)
	Persist(ctx context.Context, o *Order) error
}

type Catalog interface {
	Lookup(ctx context.Context, id string) (*catalog.Entry, error)
}

type PaymentGateway interface {
	Decide(ctx context.Context, req payment.Request) error
}

type Filter struct {
	Statuses   []Status
	Sector     string
	CustomerID string
	DueBefore  *time.Time
}

// Service coordinates every order mutation: it loads the current snapshot, runs the
// pure transition and hands the result to the repository.
type Service struct {
	repo     Repository
	catalog  Catalog
	payments PaymentGateway

	newID          func() uuid.UUID
	now            func() time.Time
	dispatchSector string
	organizationID string
}

type Option func(*Service)

func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Service) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

func WithDispatchSector(sector string) Option {
	return func(s *Service) { s.dispatchSector = sector }
}

func WithOrganization(id string) Option {
	return func(s *Service) { s.organizationID = id }
}

const DefaultDispatchSector = "Expedição"

func NewService(repo Repository, cat Catalog, payments PaymentGateway, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		catalog:        cat,
		payments:       payments,
		newID:          uuid.New,
		now:            time.Now,
		dispatchSector: DefaultDispatchSector,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) stamp(actor identity.Actor) Stamp {
	return Stamp{EventID: s.newID(), At: s.now(), Actor: actor}
}

// LineRequest asks for one catalog entry with a selection of variations.
type LineRequest struct {
	CatalogEntryID   string
	Selection        pricing.Selection
	Quantity         int
	CommissionExempt bool
}

// AddOrder prices the lines, assigns the next reference and persists the new order.
func (s *Service) AddOrder(ctx context.Context, actor identity.Actor, d Draft, lines []LineRequest) (*Order, error) {
	items := make([]LineItem, 0, len(lines))

	for i, l := range lines {
		entry, err := s.catalog.Lookup(ctx, l.CatalogEntryID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: looking up catalog entry %q: %w", i, l.CatalogEntryID, err)
		}

		items = append(items, NewLineItem(s.newID(), entry, l.Selection, l.Quantity, l.CommissionExempt))
	}

	// Validate before touching the repository for the reference.
	if err := d.validate(items); err != nil {
		return nil, err
	}

	existing, err := s.repo.Find(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	ref, err := NextSequenceNumber(existing, d.Channel, d.Parent)
	if err != nil {
		return nil, err
	}

	d.ExternalRef = ref
	d.Attachments = s.stampAttachments(d.Attachments)

	o, err := Build(s.newID(), d, items, s.stamp(actor))
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// stampAttachments fills in ids and upload times the caller left empty.
func (s *Service) stampAttachments(in []Attachment) []Attachment {
	out := make([]Attachment, len(in))

	for i, a := range in {
		if a.ID == uuid.Nil {
			a.ID = s.newID()
		}

		if a.UploadedAt.IsZero() {
			a.UploadedAt = s.now()
		}

		out[i] = a
	}

	return out
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	return o, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Order, error) {
	orders, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	return orders, nil
}

func (s *Service) UpdateLogistics(ctx context.Context, actor identity.Actor, id uuid.UUID, p LogisticsPatch) (*Order, error) {
	return s.mutate(ctx, id, func(o *Order) (*Order, error) {
		return UpdateLogistics(o, s.stamp(actor), p)
	})
}

// ScanPlan is a classified scan awaiting confirmation.
type ScanPlan struct {
	Order  *Order
	Kind   ScanKind
	Sector string
}

// Resolve finds the order a printed or scanned code refers to.
func (s *Service) Resolve(ctx context.Context, code string) (*Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("code", "required")
	}

	o, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolving code %q: %w", code, err)
	}

	return o, nil
}

// PrepareScan resolves a scanned code and classifies it. Nothing is written: dropping
// the plan leaves the order untouched.
func (s *Service) PrepareScan(ctx context.Context, actor identity.Actor, code string) (ScanPlan, error) {
	o, err := s.Resolve(ctx, code)
	if err != nil {
		return ScanPlan{}, err
	}

	return ScanPlan{Order: o, Kind: ClassifyScan(o, actor), Sector: actor.Sector}, nil
}

// ConfirmScan applies a prepared plan to the latest stored version of the order. The
// scan is classified again against that version; when another scan has changed the
// outcome since the plan was prepared, ErrInvalidTransition is returned and nothing
// is written.
func (s *Service) ConfirmScan(ctx context.Context, actor identity.Actor, plan ScanPlan) (*Order, error) {
	if plan.Order == nil {
		return nil, invalid("plan", "no order")
	}

	if plan.Sector != actor.Sector {
		return nil, fmt.Errorf("%w: plan prepared for sector %q, station is %q", ErrInvalidTransition, plan.Sector, actor.Sector)
	}

	return s.mutate(ctx, plan.Order.ID, func(o *Order) (*Order, error) {
		if kind := ClassifyScan(o, actor); kind != plan.Kind {
			return nil, fmt.Errorf("%w: order %s now scans as %s, not %s", ErrInvalidTransition, o.ExternalRef, kind, plan.Kind)
		}

		return ApplyScan(o, s.stamp(actor), plan.Kind)
	})
}

// RecordScan classifies and applies a scan in one step.
func (s *Service) RecordScan(ctx context.Context, actor identity.Actor, code string) (*Order, ScanKind, error) {
	plan, err := s.PrepareScan(ctx, actor, code)
	if err != nil {
		return nil, "", err
	}

	o, err := s.ConfirmScan(ctx, actor, plan)
	if err != nil {
		return nil, "", err
	}

	return o, plan.Kind, nil
}

// Start manually enters the order at sector, or at the actor's sector when empty.
func (s *Service) Start(ctx context.Context, actor identity.Actor, id uuid.UUID, sector string) (*Order, error) {
	if sector == "" {
		sector = actor.Sector
	}

	return s.mutate(ctx, id, func(o *Order) (*Order, error) {
		return Enter(o, s.stamp(actor), sector)
	})
}

func (s *Service) Finalize(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Order, error) {
	return s.mutate(ctx, id, func(o *Order) (*Order, error) {
		return Finalize(o, s.stamp(actor), s.dispatchSector), nil
	})
}

func (s *Service) Reopen(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Order, error) {
	return s.mutate(ctx, id, func(o *Order) (*Order, error) {
		return Reopen(o, s.stamp(actor)), nil
	})
}

func (s *Service) Deliver(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Order, error) {
	return s.mutate(ctx, id, func(o *Order) (*Order, error) {
		return Deliver(o, s.stamp(actor)), nil
	})
}

// Approve accepts a web intake order once the payment collaborator has captured it.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Order, error) {
	return s.decide(ctx, id, payment.DecisionApprove, "", func(o *Order) (*Order, error) {
		return Approve(o, s.stamp(actor))
	})
}

// Reject turns down a web intake order once the payment collaborator has refunded it.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*Order, error) {
	return s.decide(ctx, id, payment.DecisionReject, reason, func(o *Order) (*Order, error) {
		return Reject(o, s.stamp(actor), reason)
	})
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, d payment.Decision, reason string, transition func(*Order) (*Order, error)) (*Order, error) {
	return s.mutate(ctx, id, func(o *Order) (*Order, error) {
		next, err := transition(o)
		if err != nil {
			return nil, err
		}

		err = s.payments.Decide(ctx, payment.Request{
			OrganizationID: s.organizationID,
			OrderID:        o.ID,
			Decision:       d,
			Reason:         reason,
		})
		if err != nil {
			return nil, fmt.Errorf("payment %s: %w", d, err)
		}

		return next, nil
	})
}

// mutate loads the order, computes the next snapshot and persists it. The loaded order
// is never modified.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Order) (*Order, error)) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := fn(o)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}

	return next, nil
}

func (s *Service) persist(ctx context.Context, o *Order) error {
	if err := s.repo.Persist(ctx, o); err != nil {
		return &RepositoryError{Op: "persist", Err: err}
	}

	last, _ := o.History.Last()
	slog.Info("order persisted",
		"order_id", o.ID,
		"ref", o.ExternalRef,
		"status", o.Status,
		"sector", o.CurrentSector,
		"action", last.Action,
	)

	return nil
}
