package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"storefront/internal/catalog"
)

func (t *Tx) ProductByID(_ context.Context, id string) (catalog.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (t *Tx) ProductsByIDs(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	out := make(map[string]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.st.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *Tx) DecrementStock(_ context.Context, productID string, qty int, now time.Time) error {
	p, ok := t.st.products[productID]
	if !ok {
		return catalog.ErrUnknownProduct
	}
	if p.Stock == nil {
		return nil
	}
	if *p.Stock < qty {
		return catalog.ErrInsufficientStock
	}
	left := *p.Stock - qty
	p.Stock = &left
	p.UpdatedAt = now
	t.st.products[productID] = p
	return nil
}

func (t *Tx) CategoryByID(_ context.Context, id string) (catalog.Category, error) {
	c, ok := t.st.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrNotFound
	}
	return c, nil
}

func (t *Tx) InsertCategory(_ context.Context, c catalog.Category) error {
	t.st.categories[c.ID] = c
	t.st.catOrder = append(t.st.catOrder, c.ID)
	return nil
}

func (t *Tx) ListCategories(_ context.Context, visibleOnly bool) ([]catalog.Category, error) {
	out := make([]catalog.Category, 0, len(t.st.catOrder))
	for _, id := range t.st.catOrder {
		c := t.st.categories[id]
		if visibleOnly && !c.Visible {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (t *Tx) InsertProduct(_ context.Context, p catalog.Product) error {
	if _, ok := t.st.categories[p.CategoryID]; !ok {
		return catalog.ErrNotFound
	}
	t.st.products[p.ID] = p
	t.st.prodOrder = append(t.st.prodOrder, p.ID)
	return nil
}

func (t *Tx) UpdateProduct(_ context.Context, p catalog.Product) error {
	if _, ok := t.st.products[p.ID]; !ok {
		return catalog.ErrNotFound
	}
	t.st.products[p.ID] = p
	return nil
}

func (t *Tx) ListProducts(_ context.Context, f catalog.ProductFilter) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0)
	for _, id := range t.st.prodOrder {
		p := t.st.products[id]
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.VisibleOnly && !t.st.categories[p.CategoryID].Visible {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}
