package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"grocery/internal/domain/lifecycle"
	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// テスト用のインメモリDB。Tx は直列で、失敗したら開始時点に戻す。
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID int64

	users         map[int64]*model.User
	products      map[int64]model.Product
	categories    map[int64]model.Category
	cart          map[[2]int64]model.CartItem
	addresses     map[int64]model.Address
	orders        map[int64]model.Order
	items         map[int64][]model.OrderItem
	audits        []model.AuditLog
	adjustments   []model.InventoryAdjustment
	notifications []model.Notification

	// 条件付き更新の直前に呼ばれる（別リクエストの割り込みを再現する）。
	// ここでの書き込みは別トランザクション扱いで、ロールバックしても残る。
	beforeCAS func(o *model.Order)
	outsideWrites map[int64]model.Order
	// 注文作成が一意制約に負けたことにする。ロールバック後に相手の注文を入れる。
	raceOrder *model.Order
	// 全ての呼び出しをこのエラーで失敗させる
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]*model.User{},
		products:   map[int64]model.Product{},
		categories: map[int64]model.Category{},
		cart:       map[[2]int64]model.CartItem{},
		addresses:  map[int64]model.Address{},
		orders:     map[int64]model.Order{},
		items:      map[int64][]model.OrderItem{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	products      map[int64]model.Product
	cart          map[[2]int64]model.CartItem
	orders        map[int64]model.Order
	items         map[int64][]model.OrderItem
	audits        []model.AuditLog
	adjustments   []model.InventoryAdjustment
	notifications []model.Notification
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		products:      copyMap(s.products),
		cart:          copyMap(s.cart),
		orders:        copyMap(s.orders),
		items:         copyMap(s.items),
		audits:        append([]model.AuditLog(nil), s.audits...),
		adjustments:   append([]model.InventoryAdjustment(nil), s.adjustments...),
		notifications: append([]model.Notification(nil), s.notifications...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.cart = snap.cart
	s.orders = snap.orders
	s.items = snap.items
	s.audits = snap.audits
	s.adjustments = snap.adjustments
	s.notifications = snap.notifications
}

// ---- TransactionManager ----

type memTx struct{ s *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(memTxRepos{t.s}); err != nil {
		t.s.restore(snap)
		t.s.applyOutsideWrites()
		return err
	}
	t.s.mu.Lock()
	t.s.outsideWrites = nil
	t.s.mu.Unlock()
	return nil
}

// 他リクエストが先にコミットした行をロールバック後に戻す
func (s *memStore) applyOutsideWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raceOrder != nil {
		o := *s.raceOrder
		s.raceOrder = nil
		s.orders[o.ID] = o
	}
	for id, o := range s.outsideWrites {
		s.orders[id] = o
	}
	s.outsideWrites = nil
}

type memTxRepos struct{ s *memStore }

func (r memTxRepos) Orders() repo.OrderRepository         { return memOrders{r.s} }
func (r memTxRepos) OrderItems() repo.OrderItemRepository { return memOrderItems{r.s} }
func (r memTxRepos) Carts() repo.CartRepository           { return memCarts{r.s} }
func (r memTxRepos) Inventory() repo.InventoryRepository  { return memInventory{r.s} }
func (r memTxRepos) Products() repo.ProductRepository     { return memProducts{r.s} }
func (r memTxRepos) AuditLogs() repo.AuditLogRepository   { return memAudits{r.s} }

// ---- orders ----

type memOrders struct{ s *memStore }

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return model.Order{}, r.s.failWith
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	return r.list(func(o model.Order) bool { return o.UserID == userID }, page, limit)
}

func (r memOrders) list(match func(o model.Order) bool, page, limit int) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, 0, r.s.failWith
	}
	var all []model.Order
	for _, o := range r.s.orders {
		if match(o) {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.raceOrder != nil {
		return 0, repo.ErrConflict
	}
	for _, o := range r.s.orders {
		if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return 0, repo.ErrConflict
		}
	}
	order.ID = r.s.id()
	order.CreatedAt = time.Now()
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r memOrders) CompareAndSwapLifecycle(ctx context.Context, orderID int64, from lifecycle.State, to lifecycle.State) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if r.s.beforeCAS != nil {
		before := o.Lifecycle()
		r.s.beforeCAS(&o)
		if !o.Lifecycle().Equal(before) {
			r.s.orders[orderID] = o
			if r.s.outsideWrites == nil {
				r.s.outsideWrites = map[int64]model.Order{}
			}
			r.s.outsideWrites[orderID] = o
		}
	}
	if !o.Lifecycle().Equal(from) {
		return false, nil
	}
	r.s.orders[orderID] = o.WithLifecycle(to)
	return true, nil
}

func (r memOrders) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	return r.list(func(o model.Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.DeliveryStatus != "" && o.DeliveryStatus != f.DeliveryStatus {
			return false
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			return false
		}
		if f.CourierID != nil && (o.CourierID == nil || *o.CourierID != *f.CourierID) {
			return false
		}
		return true
	}, f.Page, f.Limit)
}

func (r memOrders) ListForCourier(ctx context.Context, f repo.CourierOrderFilter) ([]model.Order, int64, error) {
	return r.list(func(o model.Order) bool {
		if f.Scope == repo.CourierScopeMine {
			return o.CourierID != nil && *o.CourierID == f.CourierID
		}
		return o.Status == lifecycle.StatusAccepted && o.DeliveryStatus == lifecycle.DeliveryPending && o.CourierID == nil
	}, f.Page, f.Limit)
}

func (r memOrders) Delete(ctx context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[orderID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.orders, orderID)
	delete(r.s.items, orderID)
	return nil
}

// ---- order items ----

type memOrderItems struct{ s *memStore }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.ID = r.s.id()
		it.OrderID = orderID
		rows = append(rows, it)
	}
	r.s.items[orderID] = rows
	return nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.OrderItem(nil), r.s.items[orderID]...), nil
}

// ---- cart ----

type memCarts struct{ s *memStore }

func (r memCarts) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	var out []model.CartItem
	for k, v := range r.s.cart {
		if k[0] == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r memCarts) FindItem(ctx context.Context, userID int64, productID int64) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cart[[2]int64{userID, productID}]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r memCarts) Upsert(ctx context.Context, item model.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cart[[2]int64{item.UserID, item.ProductID}] = item
	return nil
}

func (r memCarts) UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := [2]int64{userID, productID}
	it, ok := r.s.cart[k]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.s.cart[k] = it
	return nil
}

func (r memCarts) Remove(ctx context.Context, userID int64, productID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := [2]int64{userID, productID}
	if _, ok := r.s.cart[k]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.cart, k)
	return nil
}

func (r memCarts) Clear(ctx context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k := range r.s.cart {
		if k[0] == userID {
			delete(r.s.cart, k)
		}
	}
	return nil
}

// ---- inventory ----

type memInventory struct{ s *memStore }

func (r memInventory) SetStock(ctx context.Context, productID int64, newStock int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	r.s.products[productID] = p
	return nil
}

func (r memInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r memInventory) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	r.s.products[productID] = p
	return nil
}

func (r memInventory) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	adj.ID = r.s.id()
	r.s.adjustments = append(r.s.adjustments, adj)
	return nil
}

// ---- products / categories ----

type memProducts struct{ s *memStore }

func (r memProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, p := range r.s.products {
		if !q.IncludeInactive && !p.IsActive {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failWith != nil {
		return model.Product{}, r.s.failWith
	}
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id()
	r.s.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = cur.Stock
	r.s.products[p.ID] = p
	return nil
}

func (r memProducts) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

type memCategories struct{ s *memStore }

func (r memCategories) List(ctx context.Context) ([]model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Category
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r memCategories) FindByID(ctx context.Context, id int64) (model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (r memCategories) Create(ctx context.Context, c model.Category) (model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return model.Category{}, repo.ErrConflict
		}
	}
	c.ID = r.s.id()
	r.s.categories[c.ID] = c
	return c, nil
}

func (r memCategories) Update(ctx context.Context, c model.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[c.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.categories[c.ID] = c
	return nil
}

func (r memCategories) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.categories, id)
	return nil
}

// ---- addresses ----

type memAddresses struct{ s *memStore }

func (r memAddresses) Create(ctx context.Context, a model.Address) (model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	r.s.addresses[a.ID] = a
	return a, nil
}

func (r memAddresses) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Address
	for _, a := range r.s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAddresses) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[addressID]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (r memAddresses) Update(ctx context.Context, a model.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.addresses[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	a.UserID = cur.UserID
	a.IsDefault = cur.IsDefault
	a.CreatedAt = cur.CreatedAt
	r.s.addresses[a.ID] = a
	return nil
}

func (r memAddresses) Delete(ctx context.Context, addressID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.addresses, addressID)
	return nil
}

func (r memAddresses) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[addressID]
	return ok && a.UserID == userID, nil
}

func (r memAddresses) SetDefault(ctx context.Context, userID, addressID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.addresses {
		if a.UserID == userID {
			a.IsDefault = id == addressID
			r.s.addresses[id] = a
		}
	}
	return nil
}

// ---- audit / notifications ----

type memAudits struct{ s *memStore }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = r.s.id()
	r.s.audits = append(r.s.audits, log)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.AuditLog
	for _, a := range r.s.audits {
		if f.Action != nil && a.Action != *f.Action {
			continue
		}
		if f.ResourceID != nil && a.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	n.CreatedAt = time.Now()
	r.s.notifications = append(r.s.notifications, n)
	return n, nil
}

func (r memNotifications) ListByUserID(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if n := r.s.notifications[i]; n.UserID == userID {
			out = append(out, n)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memNotifications) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, n := range r.s.notifications {
		if n.ID == notificationID && n.UserID == userID {
			if n.ReadAt == nil {
				now := time.Now()
				r.s.notifications[i].ReadAt = &now
			}
			return nil
		}
	}
	return repo.ErrNotFound
}

// ---- users ----

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repo.ErrConflict
		}
	}
	user.ID = r.s.id()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r memUsers) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) Update(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repo.ErrUserNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r memUsers) IncrementTokenVersion(ctx context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repo.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

func (r memUsers) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- helpers for tests ----

func (s *memStore) addProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.products[p.ID] = p
	return p
}

func (s *memStore) addAddress(a model.Address) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.addresses[a.ID] = a
	return a
}

func (s *memStore) addOrder(o model.Order, items ...model.OrderItem) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	s.orders[o.ID] = o
	for i := range items {
		items[i].ID = s.id()
		items[i].OrderID = o.ID
	}
	s.items[o.ID] = items
	return o
}

func (s *memStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *memStore) stock(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) cartSize(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.cart {
		if k[0] == userID {
			n++
		}
	}
	return n
}

func (s *memStore) auditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.audits...)
}

func (s *memStore) allNotifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification(nil), s.notifications...)
}

func (s *memStore) allAdjustments() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.InventoryAdjustment(nil), s.adjustments...)
}

func (s *memStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// 流したイベントを記録する
type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.Event
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, ev lifecycle.Event, o model.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) published() []lifecycle.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]lifecycle.Event(nil), p.events...)
}

var (
	_ repo.TransactionManager     = memTx{}
	_ repo.OrderRepository        = memOrders{}
	_ repo.OrderItemRepository    = memOrderItems{}
	_ repo.CartRepository         = memCarts{}
	_ repo.InventoryRepository    = memInventory{}
	_ repo.ProductRepository      = memProducts{}
	_ repo.CategoryRepository     = memCategories{}
	_ repo.AddressRepository      = memAddresses{}
	_ repo.AuditLogRepository     = memAudits{}
	_ repo.NotificationRepository = memNotifications{}
	_ repo.UserRepository         = memUsers{}
)
