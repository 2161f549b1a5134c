package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
	"mailcenter-service/internal/platform/logger"
	"mailcenter-service/internal/ports"
	"mailcenter-service/internal/services"
)

// In-memory ports so handler tests run without a database. The fee fake
// mirrors the conditional-update contract of the SQL adapters.

type fakeMailItemRepo struct {
	items []domain.MailItem
	err   error

	// fees receives fees opened through IntakeMailItem, mirroring the
	// transactional adapters: a fee failure persists nothing.
	fees *fakeFeeRepo
}

func (f *fakeMailItemRepo) ListMailItems(_ context.Context, filter ports.MailItemFilter) ([]domain.MailItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.MailItem, 0, len(f.items))
	for _, it := range f.items {
		if filter.ContactID != nil && it.ContactID != *filter.ContactID {
			continue
		}
		if filter.From != nil && it.ReceivedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && it.ReceivedAt.After(*filter.To) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeMailItemRepo) CreateMailItem(_ context.Context, item domain.MailItem) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeMailItemRepo) IntakeMailItem(ctx context.Context, item domain.MailItem, fee *domain.Fee) error {
	if f.err != nil {
		return f.err
	}
	if fee != nil && f.fees != nil {
		if err := f.fees.CreateFee(ctx, *fee); err != nil {
			return err
		}
	}
	f.items = append(f.items, item)
	return nil
}

type fakeFeeRepo struct {
	fees map[uuid.UUID]domain.Fee
	err  error
}

func newFakeFeeRepo(fees ...domain.Fee) *fakeFeeRepo {
	repo := &fakeFeeRepo{fees: make(map[uuid.UUID]domain.Fee, len(fees))}
	for _, f := range fees {
		repo.fees[f.FeeID] = f
	}
	return repo
}

func (f *fakeFeeRepo) ListFees(_ context.Context, filter ports.FeeFilter) ([]domain.Fee, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Fee, 0, len(f.fees))
	for _, fee := range f.fees {
		if filter.ContactID != nil && fee.ContactID != *filter.ContactID {
			continue
		}
		if filter.PendingOnly && !fee.IsPending() {
			continue
		}
		out = append(out, fee)
	}
	return out, nil
}

func (f *fakeFeeRepo) GetFee(_ context.Context, feeID uuid.UUID) (domain.Fee, error) {
	if f.err != nil {
		return domain.Fee{}, f.err
	}
	fee, ok := f.fees[feeID]
	if !ok {
		return domain.Fee{}, domain.ErrNotFound
	}
	return fee, nil
}

func (f *fakeFeeRepo) CreateFee(_ context.Context, fee domain.Fee) error {
	if f.err != nil {
		return f.err
	}
	f.fees[fee.FeeID] = fee
	return nil
}

func (f *fakeFeeRepo) Settle(_ context.Context, fee domain.Fee) error {
	return f.conditionalUpdate(fee)
}

func (f *fakeFeeRepo) UpdateSnapshot(_ context.Context, fee domain.Fee) error {
	return f.conditionalUpdate(fee)
}

func (f *fakeFeeRepo) conditionalUpdate(fee domain.Fee) error {
	if f.err != nil {
		return f.err
	}
	stored, ok := f.fees[fee.FeeID]
	if !ok {
		return domain.ErrNotFound
	}
	if !stored.IsPending() {
		return &domain.InvalidStateError{
			Entity:    "fee",
			Current:   string(stored.Status),
			Attempted: string(fee.Status),
		}
	}
	f.fees[fee.FeeID] = fee
	return nil
}

type fakeContactRepo struct {
	contacts map[uuid.UUID]domain.Contact
}

func newFakeContactRepo(contacts ...domain.Contact) *fakeContactRepo {
	repo := &fakeContactRepo{contacts: make(map[uuid.UUID]domain.Contact, len(contacts))}
	for _, c := range contacts {
		repo.contacts[c.ContactID] = c
	}
	return repo
}

func (f *fakeContactRepo) ListContacts(_ context.Context) ([]domain.Contact, error) {
	out := make([]domain.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContactRepo) GetContact(_ context.Context, contactID uuid.UUID) (domain.Contact, error) {
	c, ok := f.contacts[contactID]
	if !ok {
		return domain.Contact{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeContactRepo) CreateContact(_ context.Context, contact domain.Contact) error {
	f.contacts[contact.ContactID] = contact
	return nil
}

type fakeGroupCache struct {
	groups      map[uuid.UUID][]domain.SimpleGroup
	sets        int
	invalidates int
}

func newFakeGroupCache() *fakeGroupCache {
	return &fakeGroupCache{groups: make(map[uuid.UUID][]domain.SimpleGroup)}
}

func (f *fakeGroupCache) GetGroups(_ context.Context, contactID uuid.UUID) ([]domain.SimpleGroup, bool, error) {
	groups, ok := f.groups[contactID]
	return groups, ok, nil
}

func (f *fakeGroupCache) SetGroups(_ context.Context, contactID uuid.UUID, groups []domain.SimpleGroup) error {
	f.groups[contactID] = groups
	f.sets++
	return nil
}

func (f *fakeGroupCache) InvalidateContact(_ context.Context, contactID uuid.UUID) error {
	delete(f.groups, contactID)
	f.invalidates++
	return nil
}

func testPolicy(t *testing.T) services.BillingPolicy {
	t.Helper()
	cal, err := dates.NewCalendar(dates.DefaultTimezone)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	return services.BillingPolicy{
		Calendar:          cal,
		GraceDays:         1,
		RateCents:         200,
		MinWaiveReasonLen: services.DefaultMinWaiveReasonLen,
	}
}

func testLogger() *logger.Logger { return logger.NewNop() }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
