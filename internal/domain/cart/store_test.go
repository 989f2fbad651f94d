package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myatlin/shwecart/internal/domain/catalog"
)

// memCartRepo is an in-memory Repository good enough for store semantics.
type memCartRepo struct {
	mu    sync.Mutex
	next  int
	carts map[string]*Cart // by owner
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*Cart)}
}

func (m *memCartRepo) snapshot(c *Cart) *Cart {
	out := &Cart{ID: c.ID, Owner: c.Owner, Lines: make([]Line, len(c.Lines))}
	copy(out.Lines, c.Lines)
	return out
}

func (m *memCartRepo) Load(_ context.Context, owner string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[owner]
	if !ok {
		return nil, ErrNotFound
	}
	return m.snapshot(c), nil
}

func (m *memCartRepo) LoadOrCreate(_ context.Context, owner string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[owner]
	if !ok {
		m.next++
		c = &Cart{ID: fmt.Sprintf("cart-%d", m.next), Owner: owner}
		m.carts[owner] = c
	}
	return m.snapshot(c), nil
}

func (m *memCartRepo) byID(cartID string) *Cart {
	for _, c := range m.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *memCartRepo) AddLine(_ context.Context, cartID, itemID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byID(cartID)
	if c == nil {
		return ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity += delta
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{ItemID: itemID, Quantity: delta})
	return nil
}

func (m *memCartRepo) SetLine(_ context.Context, cartID, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byID(cartID)
	if c == nil {
		return ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrNotFound
}

func (m *memCartRepo) DeleteLine(_ context.Context, cartID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.byID(cartID)
	if c == nil {
		return nil
	}
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCartRepo) ClearLines(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.byID(cartID); c != nil {
		c.Lines = nil
	}
	return nil
}

type memItemRepo struct {
	ids map[string]bool
}

func newMemItemRepo(ids ...string) *memItemRepo {
	m := &memItemRepo{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *memItemRepo) List(_ context.Context) ([]catalog.Item, error) { return nil, nil }

func (m *memItemRepo) GetByID(_ context.Context, id string) (*catalog.Item, error) {
	if !m.ids[id] {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Item{ID: id, Name: id, Price: decimal.NewFromInt(1000)}, nil
}

func (m *memItemRepo) GetByIDs(_ context.Context, ids []string) ([]catalog.Item, error) {
	var items []catalog.Item
	for _, id := range ids {
		if m.ids[id] {
			items = append(items, catalog.Item{ID: id, Name: id, Price: decimal.NewFromInt(1000)})
		}
	}
	return items, nil
}

func newTestStore(itemIDs ...string) (*Store, *memCartRepo) {
	repo := newMemCartRepo()
	return NewStore(repo, newMemItemRepo(itemIDs...), NewOwnerLocks()), repo
}

func TestStore_GetWithoutCart(t *testing.T) {
	s, _ := newTestStore()

	c, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Owner)
	assert.True(t, c.Empty())
	assert.Empty(t, c.ID)
}

func TestStore_AddItemCreatesCartLazily(t *testing.T) {
	s, _ := newTestStore("i1")

	c, err := s.AddItem(context.Background(), "u1", "i1", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 2, c.Quantity("i1"))
}

func TestStore_AddItemAccumulates(t *testing.T) {
	s, _ := newTestStore("i1")
	ctx := context.Background()

	_, err := s.AddItem(ctx, "u1", "i1", 2)
	require.NoError(t, err)
	c, err := s.AddItem(ctx, "u1", "i1", 3)
	require.NoError(t, err)

	// One line per item, quantities summed.
	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Quantity("i1"))
}

func TestStore_AddItemInvalidQuantity(t *testing.T) {
	s, _ := newTestStore("i1")

	for _, qty := range []int{0, -1} {
		_, err := s.AddItem(context.Background(), "u1", "i1", qty)
		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
		assert.Equal(t, qty, iqErr.Quantity)
	}
}

func TestStore_AddItemUnknownItem(t *testing.T) {
	s, repo := newTestStore("i1")

	_, err := s.AddItem(context.Background(), "u1", "missing", 1)
	var uiErr *UnknownItemError
	require.ErrorAs(t, err, &uiErr)
	assert.Equal(t, "missing", uiErr.ItemID)

	// A rejected add must not create the cart.
	_, err = repo.Load(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SetQuantityReplaces(t *testing.T) {
	s, _ := newTestStore("i1")
	ctx := context.Background()

	_, err := s.AddItem(ctx, "u1", "i1", 5)
	require.NoError(t, err)

	c, err := s.SetQuantity(ctx, "u1", "i1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quantity("i1"))
}

func TestStore_SetQuantityBelowOneRemoves(t *testing.T) {
	s, _ := newTestStore("i1")
	ctx := context.Background()

	_, err := s.AddItem(ctx, "u1", "i1", 5)
	require.NoError(t, err)

	c, err := s.SetQuantity(ctx, "u1", "i1", 0)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestStore_SetQuantityMissingLine(t *testing.T) {
	s, _ := newTestStore("i1", "i2")
	ctx := context.Background()

	_, err := s.AddItem(ctx, "u1", "i1", 1)
	require.NoError(t, err)

	_, err = s.SetQuantity(ctx, "u1", "i2", 3)
	var lnfErr *LineNotFoundError
	require.ErrorAs(t, err, &lnfErr)
	assert.Equal(t, "i2", lnfErr.ItemID)
}

func TestStore_SetQuantityWithoutCart(t *testing.T) {
	s, _ := newTestStore("i1")

	_, err := s.SetQuantity(context.Background(), "u1", "i1", 3)
	var lnfErr *LineNotFoundError
	require.ErrorAs(t, err, &lnfErr)
}

func TestStore_RemoveItemIdempotent(t *testing.T) {
	s, _ := newTestStore("i1")
	ctx := context.Background()

	_, err := s.AddItem(ctx, "u1", "i1", 2)
	require.NoError(t, err)

	c, err := s.RemoveItem(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	// Removing again, and removing for an owner without a cart, are no-ops.
	c, err = s.RemoveItem(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.True(t, c.Empty())

	c, err = s.RemoveItem(ctx, "ghost", "i1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestStore_ClearKeepsCartID(t *testing.T) {
	s, _ := newTestStore("i1", "i2")
	ctx := context.Background()

	before, err := s.AddItem(ctx, "u1", "i1", 1)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "u1", "i2", 4)
	require.NoError(t, err)

	cleared, err := s.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cleared.Empty())
	assert.Equal(t, before.ID, cleared.ID)
}

func TestStore_ClearWithoutCart(t *testing.T) {
	s, _ := newTestStore()

	c, err := s.Clear(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s, _ := newTestStore("i1")
	ctx := context.Background()

	const workers = 20
	const addsEach = 10

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range addsEach {
				_, err := s.AddItem(ctx, "u1", "i1", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	c, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, workers*addsEach, c.Quantity("i1"))
	assert.Len(t, c.Lines, 1)
}
