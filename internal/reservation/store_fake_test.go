package reservation

import (
	"context"
	"sort"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/sakkovic/winnersfrip/internal/catalog"
)

// memStore is an in-memory Store for tests. It gives the same guarantee the
// database gives through row locks: under concurrent checkouts sharing a
// product exactly one CreateHoldingProducts call wins.
type memStore struct {
	mu           sync.Mutex
	products     map[string]*catalog.Product
	reservations map[string]*Reservation
	order        []string // reservation ids in insertion order

	mirrorErr error // injected MirrorProducts failure
}

func newMemStore(products ...catalog.Product) *memStore {
	s := &memStore{
		products:     make(map[string]*catalog.Product),
		reservations: make(map[string]*Reservation),
	}
	for i := range products {
		p := products[i]
		if p.Status == "" {
			p.Status = catalog.StatusAvailable
		}
		s.products[p.ID] = &p
	}
	return s
}

func (s *memStore) CreateHoldingProducts(_ context.Context, res *Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string
	for _, id := range res.ProductIDs() {
		p, ok := s.products[id]
		if !ok || p.Status != catalog.StatusAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return &ConflictError{ProductIDs: conflicts}
	}

	cp := *res
	cp.Items = append([]LineItem(nil), res.Items...)
	s.reservations[res.ID] = &cp
	s.order = append(s.order, res.ID)
	for _, id := range res.ProductIDs() {
		s.products[id].Status = catalog.StatusReserved
		s.products[id].ReservedBy = res.CustomerID
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	cp.Items = append([]LineItem(nil), res.Items...)
	return &cp, nil
}

func (s *memStore) List(_ context.Context) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reservation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.reservations[s.order[i]])
	}
	return out, nil
}

func (s *memStore) SetStatus(_ context.Context, id string, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return ErrNotFound
	}
	res.Status = st
	return nil
}

func (s *memStore) MirrorProducts(_ context.Context, productIDs []string, st catalog.Status, reservedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mirrorErr != nil {
		return s.mirrorErr
	}
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			p.Status = st
			p.ReservedBy = reservedBy
		}
	}
	return nil
}

func (s *memStore) product(id string) catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}

var _ Store = (*memStore)(nil)

// capturePublisher records everything published on one topic.
type capturePublisher struct {
	mu   sync.Mutex
	msgs []capturedMsg
}

type capturedMsg struct {
	Key     []byte
	Value   []byte
	Headers []kafkago.Header
}

func (p *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, capturedMsg{Key: key, Value: value, Headers: headers})
}

func (p *capturePublisher) all() []capturedMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedMsg(nil), p.msgs...)
}
