package cartsync

import (
	"context"
	"sync"

	"storefront-cart/gateway"
	"storefront-cart/models"
)

type mockGateway struct {
	mu sync.Mutex

	AddItemFn    func(token string, req models.AddItemRequest) gateway.Result
	FetchCartFn  func(token, userID string) ([]models.RemoteCartItem, error)
	UpdateItemFn func(token, lineItemID string, patch models.ItemPatch) gateway.Result
	RemoveItemFn func(token, lineItemID string) gateway.Result
	FetchCountFn func(token, userID string) int

	AddCalls    []models.AddItemRequest
	UpdateCalls []string
	RemoveCalls []string
	FetchCalls  int
}

func newMockGateway() *mockGateway {
	return &mockGateway{}
}

func (m *mockGateway) AddItem(ctx context.Context, token string, req models.AddItemRequest) gateway.Result {
	m.mu.Lock()
	m.AddCalls = append(m.AddCalls, req)
	m.mu.Unlock()
	if m.AddItemFn != nil {
		return m.AddItemFn(token, req)
	}
	return gateway.Result{
		Outcome: gateway.OutcomeOK,
		Item: &models.RemoteCartItem{
			ID:        "65a000000000000000000001",
			UserID:    req.UserID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		},
		StatusCode: 201,
	}
}

func (m *mockGateway) FetchCart(ctx context.Context, token, userID string) ([]models.RemoteCartItem, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.mu.Unlock()
	if m.FetchCartFn != nil {
		return m.FetchCartFn(token, userID)
	}
	return []models.RemoteCartItem{}, nil
}

func (m *mockGateway) UpdateItem(ctx context.Context, token, lineItemID string, patch models.ItemPatch) gateway.Result {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, lineItemID)
	m.mu.Unlock()
	if m.UpdateItemFn != nil {
		return m.UpdateItemFn(token, lineItemID, patch)
	}
	return gateway.Result{Outcome: gateway.OutcomeOK, Item: &models.RemoteCartItem{ID: lineItemID}}
}

func (m *mockGateway) RemoveItem(ctx context.Context, token, lineItemID string) gateway.Result {
	m.mu.Lock()
	m.RemoveCalls = append(m.RemoveCalls, lineItemID)
	m.mu.Unlock()
	if m.RemoveItemFn != nil {
		return m.RemoveItemFn(token, lineItemID)
	}
	return gateway.Result{Outcome: gateway.OutcomeOK}
}

func (m *mockGateway) FetchCount(ctx context.Context, token, userID string) int {
	if m.FetchCountFn != nil {
		return m.FetchCountFn(token, userID)
	}
	return 0
}

func (m *mockGateway) addCalls() []models.AddItemRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AddItemRequest(nil), m.AddCalls...)
}

type recordingNotifier struct {
	mu     sync.Mutex
	owners []string
}

func (r *recordingNotifier) Publish(owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = append(r.owners, owner)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}
