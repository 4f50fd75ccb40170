package reservation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"airline-reservation/internal/models"
)

// CreateCustomer stores c under the next customer id and returns that id.
// Ids start at 1 and are never reused, even after deletion.
func (s *Store) CreateCustomer(ctx context.Context, c models.Customer) (int64, error) {
	if strings.TrimSpace(c.Name) == "" {
		return 0, fmt.Errorf("create customer: name is required: %w", ErrInvalidCustomer)
	}

	unlock, err := s.mu.lock(ctx, "create customer")
	if err != nil {
		return 0, err
	}
	defer unlock()

	c.ID = s.nextCustomerID
	if err := s.repo.CreateCustomer(ctx, &c); err != nil {
		return 0, persistErr("create customer", err)
	}

	s.customers[c.ID] = &c
	s.nextCustomerID++
	return c.ID, nil
}

// GetCustomer returns the customer with the given id
func (s *Store) GetCustomer(ctx context.Context, id int64) (models.Customer, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return models.Customer{}, err
	}
	defer unlock()

	c, ok := s.customers[id]
	if !ok {
		return models.Customer{}, fmt.Errorf("customer %d: %w", id, ErrUnknownCustomer)
	}
	return *c, nil
}

// ListCustomers returns all customers ordered by id
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateCustomer replaces the profile fields of an existing customer. The id
// is taken from c and cannot change.
func (s *Store) UpdateCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return models.Customer{}, fmt.Errorf("update customer %d: name is required: %w", c.ID, ErrInvalidCustomer)
	}

	unlock, err := s.mu.lock(ctx, "update customer")
	if err != nil {
		return models.Customer{}, err
	}
	defer unlock()

	if _, ok := s.customers[c.ID]; !ok {
		return models.Customer{}, fmt.Errorf("update customer %d: %w", c.ID, ErrUnknownCustomer)
	}
	if err := s.repo.UpdateCustomer(ctx, &c); err != nil {
		return models.Customer{}, persistErr("update customer", err)
	}

	s.customers[c.ID] = &c
	return c, nil
}

// DeleteCustomer removes a customer that no reservation references
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	unlock, err := s.mu.lock(ctx, "delete customer")
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.customers[id]; !ok {
		return fmt.Errorf("delete customer %d: %w", id, ErrUnknownCustomer)
	}
	for _, r := range s.reservations {
		if r.CustomerID == id {
			return fmt.Errorf("delete customer %d: %w", id, ErrCustomerInUse)
		}
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return persistErr("delete customer", err)
	}

	delete(s.customers, id)
	return nil
}

// ReservationsByCustomer returns a customer's reservations ordered by id
func (s *Store) ReservationsByCustomer(ctx context.Context, customerID int64) ([]models.Reservation, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, ok := s.customers[customerID]; !ok {
		return nil, fmt.Errorf("customer %d: %w", customerID, ErrUnknownCustomer)
	}
	return s.filterReservations(func(r *models.Reservation) bool {
		return r.CustomerID == customerID
	}), nil
}
