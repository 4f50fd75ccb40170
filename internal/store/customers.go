package store

import (
	"context"
	"fmt"

	"airline-reservation/internal/models"

	"github.com/jmoiron/sqlx"
)

const customerColumns = `id, name, contact_name, gender, date_of_birth, address, phone, profession, concession`

// CreateCustomer inserts a customer under the id minted by the domain store
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES (:id, :name, :contact_name, :gender, :date_of_birth, :address, :phone, :profession, :concession)`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return fmt.Errorf("failed to insert customer %d: %w", c.ID, err)
		}
		return advanceSequence(ctx, tx, seqCustomers, c.ID)
	})
}

// UpdateCustomer overwrites a customer's profile
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		UPDATE customers SET name = :name, contact_name = :contact_name, gender = :gender,
			date_of_birth = :date_of_birth, address = :address, phone = :phone,
			profession = :profession, concession = :concession
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("failed to update customer %d: %w", c.ID, err)
	}
	return expectOne(res, fmt.Sprintf("update customer %d", c.ID))
}

// DeleteCustomer removes a customer
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("delete customer %d", id))
}

// ListCustomers retrieves all customers ordered by id
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.SelectContext(ctx, &customers, "SELECT "+customerColumns+" FROM customers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}
