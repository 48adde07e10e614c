package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	rmotel "github.com/Strob0t/RentMatch/internal/adapter/otel"
	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/domain/eligibility"
	"github.com/Strob0t/RentMatch/internal/domain/marketplace"
	"github.com/Strob0t/RentMatch/internal/domain/principal"
	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/database"
	"github.com/Strob0t/RentMatch/internal/port/ratelimit"
)

// ContactLimits bounds how owners may contact renters.
type ContactLimits struct {
	PerWindow        int           // contacts per owner per window; <= 0 disables
	Window           time.Duration
	MessageMaxLength int
}

// ContactService runs the owner-to-renter contact workflow.
type ContactService struct {
	store   database.Store
	anon    *Anonymizer
	limiter ratelimit.Limiter
	emitter Emitter
	limits  ContactLimits
	metrics *rmotel.Metrics
}

// NewContactService creates a ContactService. A nil limiter admits everything.
func NewContactService(store database.Store, anon *Anonymizer, limiter ratelimit.Limiter, emitter Emitter, limits ContactLimits, metrics *rmotel.Metrics) *ContactService {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &ContactService{
		store:   store,
		anon:    anon,
		limiter: limiter,
		emitter: emitter,
		limits:  limits,
		metrics: metrics,
	}
}

// Contact validates req against the caller and the renter's current state,
// stores the request and emits its event. Preconditions are checked in
// order and the first failure wins. A dispatch failure after the request is
// stored is reported through Result.DeliveryDegraded, not as an error.
func (s *ContactService) Contact(ctx context.Context, p principal.Principal, req contact.CreateRequest) (res *contact.Result, err error) {
	ctx, span := rmotel.StartContactSpan(ctx, principalID(p), req.RenterID, req.PropertyID)
	defer func() {
		if err != nil {
			s.metrics.ContactRejected(ctx, string(codeOrInternal(err)))
		}
		rmotel.EndSpan(span, err)
	}()

	if r := eligibility.OwnerMayContact(p); !r.Eligible {
		return nil, domain.Forbidden(string(r.Reason()), "contacting renters requires a verified owner account")
	}
	ownerID := p.ID()

	if err := s.checkProperty(ctx, ownerID, req.PropertyID); err != nil {
		return nil, err
	}

	renterID, anonymousID, err := s.checkRenter(ctx, req.RenterID)
	if err != nil {
		return nil, err
	}

	if err := req.ValidateMessage(s.limits.MessageMaxLength); err != nil {
		return nil, &domain.Error{Code: domain.CodeValidation, Message: err.Error()}
	}

	exists, err := s.store.ContactExists(ctx, ownerID, renterID, req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("check existing contact: %w", err)
	}
	if exists {
		return nil, errDuplicateContact(nil)
	}

	charged, err := s.checkRate(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c := &contact.ContactRequest{
		OwnerID:     ownerID,
		RenterID:    renterID,
		AnonymousID: anonymousID,
		PropertyID:  req.PropertyID,
		Message:     req.NormalizedMessage(),
	}
	if err := s.store.CreateContact(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent duplicate won the insert; this attempt cost nothing.
			if charged {
				s.refundRate(ctx, ownerID)
			}
			return nil, errDuplicateContact(err)
		}
		return nil, fmt.Errorf("create contact: %w", err)
	}

	res = &contact.Result{ContactRequest: *c}
	if err := s.emitter.Emit(ctx, c.Event()); err != nil {
		res.DeliveryDegraded = true
		logger.From(ctx).Warn("contact stored, notification dispatch deferred",
			"contact_id", c.ID,
			"error", err,
		)
	} else if fresh, err := s.store.GetContact(ctx, c.ID); err == nil {
		res.ContactRequest = *fresh
		res.ContactRequest.AnonymousID = anonymousID
	}

	s.metrics.ContactCreated(ctx, res.DeliveryDegraded)
	logger.From(ctx).Info("contact request created",
		"contact_id", c.ID,
		"owner_id", ownerID,
		"renter", anonymousID,
		"property_id", c.PropertyID,
		"degraded", res.DeliveryDegraded,
	)
	return res, nil
}

func (s *ContactService) checkProperty(ctx context.Context, ownerID, propertyID string) error {
	invalid := func(cause error) error {
		return &domain.Error{
			Code:    domain.CodeInvalidProperty,
			Message: "property is not an active listing of yours",
			Err:     cause,
		}
	}
	if propertyID == "" {
		return invalid(nil)
	}
	prop, err := s.store.GetProperty(ctx, propertyID)
	if errors.Is(err, domain.ErrNotFound) {
		return invalid(err)
	}
	if err != nil {
		return fmt.Errorf("get property: %w", err)
	}
	if !prop.ContactableBy(ownerID) {
		return invalid(nil)
	}
	return nil
}

// checkRenter resolves the anonymous id and re-checks visibility now, not as
// of the owner's last query.
func (s *ContactService) checkRenter(ctx context.Context, anonymousID string) (renterID, canonical string, err error) {
	renterID, err = s.anon.Resolve(ctx, anonymousID)
	if err != nil {
		return "", "", err
	}
	prof, err := s.store.GetRenter(ctx, renterID)
	if err != nil {
		return "", "", notFoundOr(err, "renter not found", "get renter")
	}
	// The owner learns only that the renter is hidden. Why is the renter's
	// business and shows up in their own privacy settings.
	if !eligibility.RenterVisible(prof).Eligible {
		return "", "", &domain.Error{
			Code:    domain.CodeRenterNotVisible,
			Message: "renter is no longer visible in the marketplace",
		}
	}
	seq, _ := marketplace.ParseAnonymousID(anonymousID)
	return renterID, marketplace.FormatAnonymousID(seq), nil
}

// checkRate fails open: a limiter outage must not block contacts, since the
// uniqueness constraint still caps damage. charged reports whether a unit of
// the owner's budget was spent.
func (s *ContactService) checkRate(ctx context.Context, ownerID string) (charged bool, err error) {
	if s.limits.PerWindow <= 0 {
		return false, nil
	}
	d, err := s.limiter.Allow(ctx, rateKey(ownerID), s.limits.PerWindow, s.limits.Window)
	if err != nil {
		logger.From(ctx).Warn("contact rate limiter unavailable", "error", err)
		return false, nil
	}
	if !d.Allowed {
		return false, &domain.Error{
			Code:    domain.CodeRateLimited,
			Message: fmt.Sprintf("contact limit reached, retry in %s", d.RetryAfter.Round(time.Second)),
		}
	}
	return true, nil
}

func (s *ContactService) refundRate(ctx context.Context, ownerID string) {
	r, ok := s.limiter.(ratelimit.Refunder)
	if !ok {
		return
	}
	if err := r.Refund(ctx, rateKey(ownerID), s.limits.Window); err != nil {
		logger.From(ctx).Warn("contact rate refund failed", "error", err)
	}
}

func rateKey(ownerID string) string {
	return "contact:" + ownerID
}

func errDuplicateContact(cause error) error {
	return &domain.Error{
		Code:    domain.CodeDuplicateContact,
		Message: "you already contacted this renter about this property",
		Err:     cause,
	}
}

func codeOrInternal(err error) domain.Code {
	if c := domain.CodeOf(err); c != "" {
		return c
	}
	return "INTERNAL"
}
