package services

import (
	"context"
	"fmt"
	"strings"

	"whatsstore/internal/domain"
)

type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]domain.Product, error)
}

type CatalogService struct {
	Backend CatalogBackend
}

func NewCatalogService(b CatalogBackend) *CatalogService {
	return &CatalogService{Backend: b}
}

// List returns products, optionally narrowed to a category and a name/description match.
func (s *CatalogService) List(ctx context.Context, category, q string) ([]domain.Product, error) {
	all, err := s.Backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Backend.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	ps, err := s.Backend.FeaturedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured: %w", err)
	}
	return ps, nil
}

// Categories lists distinct product categories in first-seen order.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	all, err := s.Backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range all {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}
