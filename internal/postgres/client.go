package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClientStore reads gym clients.
type ClientStore struct {
	db DBTX
}

func NewClientStore(db DBTX) *ClientStore {
	return &ClientStore{db: db}
}

// FindClientByID returns domain.ErrClientNotFound for unknown or malformed IDs.
func (s *ClientStore) FindClientByID(ctx context.Context, id string) (*domain.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrClientNotFound
	}

	var c domain.Client
	err := s.db.QueryRow(ctx, `
		SELECT id::text, display_name, email, phone
		FROM clients
		WHERE id = $1`, id,
	).Scan(&c.ID, &c.DisplayName, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, domain.Internal(err, "client.find", "failed to load client")
	}
	return &c, nil
}

// CreateClient inserts a client. Used by seeding and tests.
func (s *ClientStore) CreateClient(ctx context.Context, c *domain.Client) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO clients (display_name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING id::text`,
		c.DisplayName, c.Email, c.Phone,
	).Scan(&c.ID)
	if err != nil {
		return domain.Internal(err, "client.create", "failed to create client")
	}
	return nil
}
