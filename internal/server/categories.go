package server

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/expense-tracker/internal/categories"
)

type categoryRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *ExpenseServer) ListCategories(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryView(c))
	}
	return encode(map[string]any{"categories": out})
}

func (s *ExpenseServer) CreateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in categoryRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	cat, err := s.categories.CreateCategory(ctx, categories.NameRequest{Name: in.Name})
	if err != nil {
		return nil, err
	}
	return encode(toCategoryView(cat))
}

func (s *ExpenseServer) RenameCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in categoryRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	id, err := parseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	cat, err := s.categories.RenameCategory(ctx, id, categories.NameRequest{Name: in.Name})
	if err != nil {
		return nil, err
	}
	return encode(toCategoryView(cat))
}

// DeleteCategory fails with AlreadyExists (Conflict) while items still use it.
func (s *ExpenseServer) DeleteCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in categoryRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	id, err := parseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return nil, err
	}
	return encode(map[string]any{"id": id.String(), "deleted": true})
}
