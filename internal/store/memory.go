// Package store owns every mutable market record: drivers, riders, rides,
// escrow accounts and the ride id sequence. All access goes through
// transactions guarded by a single lock, so operations execute in one total
// order. A transaction stages clones of the records it touches and commits
// them only when its closure returns nil, which makes every operation
// all-or-nothing: a failing step leaves no partial state behind.
package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/openride/marketplace/pkg/models"
)

// Memory is the in-process record store.
type Memory struct {
	mu sync.Mutex

	drivers       map[uuid.UUID]*models.Driver
	riders        map[uuid.UUID]*models.Rider
	rides         map[int64]*models.Ride
	accounts      map[uuid.UUID]*models.Account
	riderHistory  map[uuid.UUID][]int64
	driverHistory map[uuid.UUID][]int64
	lastRideID    int64
}

// NewMemory returns an empty store. Ride ids start at 1 on first allocation.
func NewMemory() *Memory {
	return &Memory{
		drivers:       make(map[uuid.UUID]*models.Driver),
		riders:        make(map[uuid.UUID]*models.Rider),
		rides:         make(map[int64]*models.Ride),
		accounts:      make(map[uuid.UUID]*models.Account),
		riderHistory:  make(map[uuid.UUID][]int64),
		driverHistory: make(map[uuid.UUID][]int64),
	}
}

// Tx is a single-operation view of the store. Records obtained through its
// accessors are staged clones; mutating them is safe and invisible to other
// operations until the transaction commits.
type Tx struct {
	m *Memory

	drivers       map[uuid.UUID]*models.Driver
	riders        map[uuid.UUID]*models.Rider
	rides         map[int64]*models.Ride
	accounts      map[uuid.UUID]*models.Account
	riderHistory  map[uuid.UUID][]int64
	driverHistory map[uuid.UUID][]int64
	lastRideID    int64
}

func (m *Memory) newTx() *Tx {
	return &Tx{
		m:             m,
		drivers:       make(map[uuid.UUID]*models.Driver),
		riders:        make(map[uuid.UUID]*models.Rider),
		rides:         make(map[int64]*models.Ride),
		accounts:      make(map[uuid.UUID]*models.Account),
		riderHistory:  make(map[uuid.UUID][]int64),
		driverHistory: make(map[uuid.UUID][]int64),
		lastRideID:    m.lastRideID,
	}
}

// Update runs fn in an exclusive transaction. Staged changes commit iff fn
// returns nil.
func (m *Memory) Update(fn func(tx *Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := m.newTx()
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn in an exclusive transaction and always discards its staging,
// so fn gets a consistent read without publishing any mutation.
func (m *Memory) View(fn func(tx *Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(m.newTx())
}

func (tx *Tx) commit() {
	for id, d := range tx.drivers {
		tx.m.drivers[id] = d
	}
	for id, r := range tx.riders {
		tx.m.riders[id] = r
	}
	for id, r := range tx.rides {
		tx.m.rides[id] = r
	}
	for id, a := range tx.accounts {
		tx.m.accounts[id] = a
	}
	for id, h := range tx.riderHistory {
		tx.m.riderHistory[id] = h
	}
	for id, h := range tx.driverHistory {
		tx.m.driverHistory[id] = h
	}
	tx.m.lastRideID = tx.lastRideID
}

// Driver returns the staged driver record for id, cloning the committed one
// on first access.
func (tx *Tx) Driver(id uuid.UUID) (*models.Driver, bool) {
	if d, ok := tx.drivers[id]; ok {
		return d, true
	}
	d, ok := tx.m.drivers[id]
	if !ok {
		return nil, false
	}
	clone := d.Clone()
	tx.drivers[id] = clone
	return clone, true
}

// PutDriver stages a new or replaced driver record.
func (tx *Tx) PutDriver(d *models.Driver) {
	tx.drivers[d.ID] = d
}

// Rider returns the staged rider record for id.
func (tx *Tx) Rider(id uuid.UUID) (*models.Rider, bool) {
	if r, ok := tx.riders[id]; ok {
		return r, true
	}
	r, ok := tx.m.riders[id]
	if !ok {
		return nil, false
	}
	clone := r.Clone()
	tx.riders[id] = clone
	return clone, true
}

// PutRider stages a new or replaced rider record.
func (tx *Tx) PutRider(r *models.Rider) {
	tx.riders[r.ID] = r
}

// Ride returns the staged ride record for id.
func (tx *Tx) Ride(id int64) (*models.Ride, bool) {
	if r, ok := tx.rides[id]; ok {
		return r, true
	}
	r, ok := tx.m.rides[id]
	if !ok {
		return nil, false
	}
	clone := r.Clone()
	tx.rides[id] = clone
	return clone, true
}

// PutRide stages a new or replaced ride record.
func (tx *Tx) PutRide(r *models.Ride) {
	tx.rides[r.ID] = r
}

// Account returns the staged account record for id.
func (tx *Tx) Account(id uuid.UUID) (*models.Account, bool) {
	if a, ok := tx.accounts[id]; ok {
		return a, true
	}
	a, ok := tx.m.accounts[id]
	if !ok {
		return nil, false
	}
	clone := a.Clone()
	tx.accounts[id] = clone
	return clone, true
}

// PutAccount stages a new or replaced account record.
func (tx *Tx) PutAccount(a *models.Account) {
	tx.accounts[a.ID] = a
}

// AccountIDs lists every known account, staged ones included, in a stable
// order.
func (tx *Tx) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(tx.m.accounts)+len(tx.accounts))
	for id := range tx.m.accounts {
		seen[id] = struct{}{}
	}
	for id := range tx.accounts {
		seen[id] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// NextRideID allocates the next ride identifier. The sequence is shared by
// all requests, starts at 1 and only advances when the transaction commits.
func (tx *Tx) NextRideID() int64 {
	tx.lastRideID++
	return tx.lastRideID
}

// LastRideID returns the highest identifier allocated so far.
func (tx *Tx) LastRideID() int64 {
	return tx.lastRideID
}

// RiderHistory returns the ride ids associated with a rider, oldest first.
func (tx *Tx) RiderHistory(id uuid.UUID) []int64 {
	if h, ok := tx.riderHistory[id]; ok {
		return h
	}
	return copyHistory(tx.m.riderHistory[id])
}

// AppendRiderHistory stages rideID onto the rider's append-only history.
func (tx *Tx) AppendRiderHistory(id uuid.UUID, rideID int64) {
	tx.riderHistory[id] = append(tx.RiderHistory(id), rideID)
}

// DriverHistory returns the ride ids associated with a driver, oldest first.
func (tx *Tx) DriverHistory(id uuid.UUID) []int64 {
	if h, ok := tx.driverHistory[id]; ok {
		return h
	}
	return copyHistory(tx.m.driverHistory[id])
}

// AppendDriverHistory stages rideID onto the driver's append-only history.
func (tx *Tx) AppendDriverHistory(id uuid.UUID, rideID int64) {
	tx.driverHistory[id] = append(tx.DriverHistory(id), rideID)
}

func copyHistory(h []int64) []int64 {
	if len(h) == 0 {
		return nil
	}
	out := make([]int64, len(h))
	copy(out, h)
	return out
}
