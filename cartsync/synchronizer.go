// Package cartsync routes cart actions between the guest cart and the Cart API, and
// merges the guest cart into the remote cart after sign-in.
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"storefront-cart/cartstore"
	"storefront-cart/dtos"
	"storefront-cart/gateway"
	"storefront-cart/models"
	"storefront-cart/utils"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNotAuthenticated = errors.New("cartsync: sign-in required")
	ErrMergeIncomplete  = errors.New("cartsync: guest cart merge incomplete")
	ErrMissingProduct   = errors.New("cartsync: productId is required")
	ErrInvalidQuantity  = cartstore.ErrInvalidQuantity
)

const maxConcurrentMerges = 5

// Gateway is the subset of the Cart API client the synchronizer drives.
type Gateway interface {
	AddItem(ctx context.Context, token string, req models.AddItemRequest) gateway.Result
	FetchCart(ctx context.Context, token, userID string) ([]models.RemoteCartItem, error)
	UpdateItem(ctx context.Context, token, lineItemID string, patch models.ItemPatch) gateway.Result
	RemoveItem(ctx context.Context, token, lineItemID string) gateway.Result
	FetchCount(ctx context.Context, token, userID string) int
}

// Notifier receives a signal after every successful cart mutation.
type Notifier interface {
	Publish(owner string) error
}

// State is where an add-to-cart action ended up.
type State string

const (
	StateRemote   State = "remote"
	StateGuest    State = "guest"
	StateFallback State = "fallback"
)

type AddRequest struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

type AddResult struct {
	State State                  `json:"state"`
	Item  *models.RemoteCartItem `json:"item,omitempty"`
	Items []models.GuestCartItem `json:"items,omitempty"`
}

type Synchronizer struct {
	local    *cartstore.Store
	remote   Gateway
	notifier Notifier
}

// New wires a synchronizer. notifier may be nil.
func New(local *cartstore.Store, remote Gateway, notifier Notifier) *Synchronizer {
	return &Synchronizer{
		local:    local,
		remote:   remote,
		notifier: notifier,
	}
}

// AddToCart adds to the remote cart for signed-in sessions and to the guest cart
// otherwise. A rejected credential falls back to the guest cart without error, so the
// item is merged on the next sign-in; any other remote failure is returned as is.
func (s *Synchronizer) AddToCart(ctx context.Context, sess models.Session, req AddRequest) (AddResult, error) {
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return AddResult{}, ErrMissingProduct
	}
	if req.Quantity < 1 {
		return AddResult{}, ErrInvalidQuantity
	}

	// Writes outlive the request that started them; the gateway timeout bounds them.
	ctx = context.WithoutCancel(ctx)

	identity := utils.ResolveIdentity(sess)
	if !identity.Authenticated() {
		items := s.addLocal(ctx, sess, productID, req)
		return AddResult{State: StateGuest, Items: items}, nil
	}

	res := s.remote.AddItem(ctx, sess.Token, models.AddItemRequest{
		UserID:    identity.UserID,
		ProductID: productID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})

	switch res.Outcome {
	case gateway.OutcomeOK:
		s.notify(sess)
		return AddResult{State: StateRemote, Item: res.Item}, nil
	case gateway.OutcomeAuthFallback:
		log.Printf("WARNING: cart api rejected credential of user %s, keeping product %s in guest cart", identity.UserID, productID)
		items := s.addLocal(ctx, sess, productID, req)
		// the session still reads the remote cart, so guest listeners see the new line
		s.publish(utils.GuestOwnerKey(sess.GuestID))
		return AddResult{State: StateFallback, Items: items}, nil
	default:
		return AddResult{}, fmt.Errorf("failed to add item to cart: %w", res.Error())
	}
}

func (s *Synchronizer) addLocal(ctx context.Context, sess models.Session, productID string, req AddRequest) []models.GuestCartItem {
	items := s.local.Cart(sess.GuestID).Add(ctx, models.GuestCartItem{
		ProductID: productID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	s.notify(sess)
	return items
}

// MergeGuestCart copies every guest line into the signed-in user's remote cart. The
// guest cart is cleared only when no remote add failed; otherwise it is left intact for
// a retry, which may add some lines twice but never loses one. Cancelling ctx does not
// abort adds already under way.
func (s *Synchronizer) MergeGuestCart(ctx context.Context, sess models.Session) (*dtos.MergeReport, error) {
	identity := utils.ResolveIdentity(sess)
	if !identity.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	ctx = context.WithoutCancel(ctx)

	cart := s.local.Cart(sess.GuestID)
	items := cart.ReadAll(ctx)

	report := &dtos.MergeReport{
		Status: dtos.MergeStatusNoop,
		Items:  make([]dtos.MergeItem, len(items)),
	}
	if len(items) == 0 {
		return report, nil
	}

	// No shared context: a failing add must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(maxConcurrentMerges)
	for i, item := range items {
		report.Items[i] = dtos.MergeItem{ProductID: item.ProductID, Quantity: item.Quantity}

		productID, ok := utils.FormatID(item.ProductID)
		if !ok || item.Quantity < 1 {
			log.Printf("WARNING: skipping guest cart line %q (quantity %d) during merge for user %s", item.ProductID, item.Quantity, identity.UserID)
			report.Items[i].Status = dtos.MergeItemSkipped
			if !ok {
				report.Items[i].Error = utils.ErrInvalidID.Error()
			} else {
				report.Items[i].Error = ErrInvalidQuantity.Error()
			}
			continue
		}

		i, item := i, item
		g.Go(func() error {
			res := s.remote.AddItem(ctx, sess.Token, models.AddItemRequest{
				UserID:    identity.UserID,
				ProductID: productID,
				Quantity:  item.Quantity,
				Size:      item.Size,
				Color:     item.Color,
			})
			if err := res.Error(); err != nil {
				report.Items[i].Status = dtos.MergeItemFailed
				report.Items[i].Error = err.Error()
				return err
			}
			report.Items[i].Status = dtos.MergeItemMerged
			return nil
		})
	}

	err := g.Wait()
	report.Tally()
	if err != nil {
		report.Status = dtos.MergeStatusFailed
		return report, fmt.Errorf("%w: %d of %d lines failed: %v", ErrMergeIncomplete, report.Failed, report.Total, err)
	}

	cart.Clear(ctx)
	report.Status = dtos.MergeStatusCompleted
	report.Cleared = true
	s.notify(sess)
	// listeners opened before sign-in still watch the guest cart
	s.publish(utils.GuestOwnerKey(sess.GuestID))
	return report, nil
}

// UpdateItem sets the quantity of one line. Quantities below 1 remove the line.
func (s *Synchronizer) UpdateItem(ctx context.Context, sess models.Session, lineItemID string, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, sess, lineItemID)
	}

	if models.IsLocalID(lineItemID) {
		productID := models.ProductIDFromLocalID(lineItemID)
		if _, err := s.local.Cart(sess.GuestID).SetQuantity(ctx, productID, quantity); err != nil {
			return err
		}
		s.notify(sess)
		return nil
	}

	id, err := utils.ValidateID(lineItemID)
	if err != nil {
		return err
	}
	if !utils.ResolveIdentity(sess).Authenticated() {
		return ErrNotAuthenticated
	}

	res := s.remote.UpdateItem(ctx, sess.Token, id, models.ItemPatch{Quantity: &quantity})
	if err := res.Error(); err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	s.notify(sess)
	return nil
}

// RemoveItem deletes one line from whichever cart holds it.
func (s *Synchronizer) RemoveItem(ctx context.Context, sess models.Session, lineItemID string) error {
	if models.IsLocalID(lineItemID) {
		productID := models.ProductIDFromLocalID(lineItemID)
		if _, err := s.local.Cart(sess.GuestID).Remove(ctx, productID); err != nil {
			return err
		}
		s.notify(sess)
		return nil
	}

	id, err := utils.ValidateID(lineItemID)
	if err != nil {
		return err
	}
	if !utils.ResolveIdentity(sess).Authenticated() {
		return ErrNotAuthenticated
	}

	res := s.remote.RemoveItem(ctx, sess.Token, id)
	if err := res.Error(); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	s.notify(sess)
	return nil
}

// Items returns the cart the session currently sees.
func (s *Synchronizer) Items(ctx context.Context, sess models.Session) ([]models.CartLine, error) {
	identity := utils.ResolveIdentity(sess)
	if identity.Authenticated() {
		remote, err := s.remote.FetchCart(ctx, sess.Token, identity.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch cart: %w", err)
		}
		lines := make([]models.CartLine, 0, len(remote))
		for _, item := range remote {
			lines = append(lines, models.LineFromRemote(item))
		}
		return lines, nil
	}

	guest := s.local.Cart(sess.GuestID).ReadAll(ctx)
	lines := make([]models.CartLine, 0, len(guest))
	for _, item := range guest {
		lines = append(lines, models.LineFromGuest(item))
	}
	return lines, nil
}

// Count returns the badge count. It never fails; unavailable counts read as 0.
func (s *Synchronizer) Count(ctx context.Context, sess models.Session) int {
	identity := utils.ResolveIdentity(sess)
	if identity.Authenticated() {
		return s.remote.FetchCount(ctx, sess.Token, identity.UserID)
	}
	return s.local.Cart(sess.GuestID).Count(ctx)
}

func (s *Synchronizer) notify(sess models.Session) {
	s.publish(utils.OwnerKey(sess))
}

func (s *Synchronizer) publish(owner string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(owner); err != nil {
		log.Printf("WARNING: failed to broadcast cart update for %s: %v", owner, err)
	}
}
