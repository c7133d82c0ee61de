package catalog

import (
	"context"
	"fmt"
	"io"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	GetEntry(ctx context.Context, id string) (*Entry, error)
	ListEntries(ctx context.Context) ([]*Entry, error)
	UpsertEntries(ctx context.Context, entries []*Entry) error
}

// Parser turns an external price list into catalog entries.
type Parser interface {
	Parse(r io.Reader) ([]*Entry, error)
}

// Service is the read model used by pricing and authoring. Catalog administration
// happens elsewhere; Seed and Import only exist to load data into the repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Lookup returns a copy of the entry or ErrNotFound.
func (s *Service) Lookup(ctx context.Context, id string) (*Entry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	return e.Clone(), nil
}

func (s *Service) List(ctx context.Context) ([]*Entry, error) {
	return s.repo.ListEntries(ctx)
}

func (s *Service) Seed(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := s.repo.UpsertEntries(ctx, entries); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}

	return nil
}

// Import parses a price list and stores the resulting entries.
func (s *Service) Import(ctx context.Context, p Parser, r io.Reader) ([]*Entry, error) {
	entries, err := p.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse price list: %w", err)
	}

	if err := s.Seed(ctx, entries); err != nil {
		return nil, err
	}

	return entries, nil
}
