package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/internal/gateway"
	"github.com/petmat/checkout-service/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	payments map[string]entities.Payment
	err      error
}

func (f *fakeFetcher) GetPayment(_ context.Context, id string) (entities.Payment, error) {
	if f.err != nil {
		return entities.Payment{}, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return entities.Payment{}, gateway.ErrBadResponse
	}
	return p, nil
}

// fakeStore mirrors the conditional update the repo performs: derive the
// order status from the payment status, honor the sticky policy, and report
// the pre-update status so callers can detect the confirmation edge. The
// mutex stands in for the row lock the statement takes, so a concurrent
// duplicate sees the committed status, not the pre-lock one.
type fakeStore struct {
	mu        sync.Mutex
	orders    map[string]entities.Order
	anomalies []entities.Anomaly
	applyErr  error
}

func newFakeStore(orders ...entities.Order) *fakeStore {
	s := &fakeStore{orders: make(map[string]entities.Order)}
	for _, o := range orders {
		s.orders[o.Reference] = o
	}
	return s
}

func (f *fakeStore) ApplyPaymentStatus(_ context.Context, reference string, ps entities.PaymentStatus, paymentID string, sticky bool) (entities.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.applyErr != nil {
		return entities.StatusChange{}, f.applyErr
	}
	order, ok := f.orders[reference]
	if !ok {
		return entities.StatusChange{}, entities.ErrOrderNotFound
	}
	if sticky && order.Status != entities.StatusPending && ps != entities.PaymentApproved && ps != entities.PaymentRejected {
		return entities.StatusChange{Order: order, Previous: order.Status}, nil
	}

	prev := order.Status
	order.PaymentStatus = ps
	switch ps {
	case entities.PaymentApproved:
		order.Status = entities.StatusConfirmed
	case entities.PaymentRejected:
		order.Status = entities.StatusCancelled
	default:
		order.Status = entities.StatusPending
	}
	if order.PaymentID == "" {
		order.PaymentID = paymentID
	}
	f.orders[reference] = order
	return entities.StatusChange{Order: order, Previous: prev, Applied: true}, nil
}

func (f *fakeStore) RecordAnomaly(_ context.Context, a entities.Anomaly) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anomalies = append(f.anomalies, a)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	snapshots []notify.Snapshot
}

func (f *fakeNotifier) NotifyOrderConfirmed(_ context.Context, snap notify.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []entities.StatusChange
}

func (f *fakePublisher) PublishStatusChanged(_ context.Context, change entities.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeCache) Set(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *fakeCache) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
}

func pendingOrder(reference string) entities.Order {
	return entities.Order{
		Reference:     reference,
		PreferenceID:  "pref-1",
		Customer:      entities.Customer{Name: "Jane Doe", Email: "jane@example.com"},
		Items:         []entities.LineItem{{Title: "Leash", Quantity: 1, UnitPrice: 5000}},
		Subtotal:      5000,
		ShippingCost:  2990,
		Total:         7990,
		Status:        entities.StatusPending,
		PaymentStatus: entities.PaymentPending,
	}
}

func newTestReconciler(fetcher *fakeFetcher, store *fakeStore, notifier *fakeNotifier, publisher *fakePublisher, cache *fakeCache) *Reconciler {
	return NewReconciler(testLogger(), fetcher, store, notifier, publisher, cache, config.Reconcile{
		Policy:    config.PolicySticky,
		Workers:   1,
		QueueSize: 8,
	})
}

func TestReconciler_ApprovedConfirmsAndNotifiesOnce(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentApproved, ExternalReference: "ord_1_a", TransactionAmount: 7990},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	cache := newFakeCache()
	r := newTestReconciler(fetcher, store, notifier, publisher, cache)

	r.process(context.Background(), "pay-1")

	order := store.orders["ord_1_a"]
	assert.Equal(t, entities.StatusConfirmed, order.Status)
	assert.Equal(t, entities.PaymentApproved, order.PaymentStatus)
	assert.Equal(t, "pay-1", order.PaymentID)

	require.Len(t, notifier.snapshots, 1)
	assert.Equal(t, "ord_1_a", notifier.snapshots[0].Order.Reference)
	assert.Equal(t, "pay-1", notifier.snapshots[0].Payment.ID)

	require.Len(t, publisher.changes, 1)
	assert.Equal(t, entities.StatusPending, publisher.changes[0].Previous)

	// the read path must see the fresh snapshot
	data, ok := cache.Get("ord_1_a")
	require.True(t, ok)
	var cached entities.Order
	require.NoError(t, cached.Unmarshal(data))
	assert.Equal(t, entities.StatusConfirmed, cached.Status)
}

func TestReconciler_DuplicateDeliveryNotifiesOnce(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentApproved, ExternalReference: "ord_1_a"},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	notifier := &fakeNotifier{}
	r := newTestReconciler(fetcher, store, notifier, &fakePublisher{}, newFakeCache())

	r.process(context.Background(), "pay-1")
	r.process(context.Background(), "pay-1")
	r.process(context.Background(), "pay-1")

	assert.Equal(t, entities.StatusConfirmed, store.orders["ord_1_a"].Status)
	assert.Len(t, notifier.snapshots, 1, "redelivered approvals must not notify again")
}

func TestReconciler_ConcurrentDuplicateDeliveriesNotifyOnce(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentApproved, ExternalReference: "ord_1_a"},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	notifier := &fakeNotifier{}
	r := newTestReconciler(fetcher, store, notifier, &fakePublisher{}, newFakeCache())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.process(context.Background(), "pay-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, entities.StatusConfirmed, store.orders["ord_1_a"].Status)
	assert.Len(t, notifier.snapshots, 1,
		"only the write that crossed into confirmed may notify")
}

func TestReconciler_RejectedCancelsWithoutNotification(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentRejected, ExternalReference: "ord_1_a"},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	notifier := &fakeNotifier{}
	r := newTestReconciler(fetcher, store, notifier, &fakePublisher{}, newFakeCache())

	r.process(context.Background(), "pay-1")

	assert.Equal(t, entities.StatusCancelled, store.orders["ord_1_a"].Status)
	assert.Empty(t, notifier.snapshots)
}

func TestReconciler_UnknownReferenceRecordsAnomaly(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentApproved, ExternalReference: "ord_missing"},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	notifier := &fakeNotifier{}
	r := newTestReconciler(fetcher, store, notifier, &fakePublisher{}, newFakeCache())

	r.process(context.Background(), "pay-1")

	require.Len(t, store.anomalies, 1)
	assert.Equal(t, entities.AnomalyUnknownReference, store.anomalies[0].Reason)
	assert.Equal(t, "ord_missing", store.anomalies[0].Reference)
	assert.Equal(t, "pay-1", store.anomalies[0].PaymentID)

	// the existing order is untouched
	assert.Equal(t, entities.StatusPending, store.orders["ord_1_a"].Status)
	assert.Empty(t, notifier.snapshots)
}

func TestReconciler_MissingReferenceRecordsAnomaly(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentApproved},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	r := newTestReconciler(fetcher, store, &fakeNotifier{}, &fakePublisher{}, newFakeCache())

	r.process(context.Background(), "pay-1")

	require.Len(t, store.anomalies, 1)
	assert.Equal(t, entities.AnomalyMissingReference, store.anomalies[0].Reason)
}

func TestReconciler_StickySkipsLateDowngrade(t *testing.T) {
	order := pendingOrder("ord_1_a")
	order.Status = entities.StatusConfirmed
	order.PaymentStatus = entities.PaymentApproved
	order.PaymentID = "pay-1"

	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-2": {ID: "pay-2", Status: entities.PaymentInProcess, ExternalReference: "ord_1_a"},
	}}
	store := newFakeStore(order)
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	r := newTestReconciler(fetcher, store, notifier, publisher, newFakeCache())

	r.process(context.Background(), "pay-2")

	got := store.orders["ord_1_a"]
	assert.Equal(t, entities.StatusConfirmed, got.Status)
	assert.Equal(t, entities.PaymentApproved, got.PaymentStatus)
	assert.Empty(t, notifier.snapshots)
	assert.Empty(t, publisher.changes, "skipped transitions publish no event")
}

func TestReconciler_GatewayFailureLeavesStoreUntouched(t *testing.T) {
	fetcher := &fakeFetcher{err: gateway.ErrUnavailable}
	store := newFakeStore(pendingOrder("ord_1_a"))
	notifier := &fakeNotifier{}
	r := newTestReconciler(fetcher, store, notifier, &fakePublisher{}, newFakeCache())

	r.process(context.Background(), "pay-1")

	assert.Equal(t, entities.StatusPending, store.orders["ord_1_a"].Status)
	assert.Empty(t, store.anomalies)
	assert.Empty(t, notifier.snapshots)
}

func TestReconciler_StoreErrorIsNotAnAnomaly(t *testing.T) {
	fetcher := &fakeFetcher{payments: map[string]entities.Payment{
		"pay-1": {ID: "pay-1", Status: entities.PaymentApproved, ExternalReference: "ord_1_a"},
	}}
	store := newFakeStore(pendingOrder("ord_1_a"))
	store.applyErr = errors.New("db down")
	r := newTestReconciler(fetcher, store, &fakeNotifier{}, &fakePublisher{}, newFakeCache())

	r.process(context.Background(), "pay-1")

	assert.Empty(t, store.anomalies, "transient store failures rely on redelivery, not the anomaly ledger")
}

func TestReconciler_EnqueueDropsWhenFull(t *testing.T) {
	r := NewReconciler(testLogger(), &fakeFetcher{}, newFakeStore(), &fakeNotifier{}, &fakePublisher{}, newFakeCache(), config.Reconcile{
		Policy:    config.PolicySticky,
		Workers:   1,
		QueueSize: 2,
	})

	// no workers running: the queue fills up
	assert.True(t, r.Enqueue("pay-1"))
	assert.True(t, r.Enqueue("pay-2"))
	assert.False(t, r.Enqueue("pay-3"))
}
