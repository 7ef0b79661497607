package plans

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
)

// Source defines how plans are loaded into the catalog.
type Source interface {
	Load(ctx context.Context) (map[ID]Plan, error)
}

// Catalog is the read-only plan table consulted on every entitlement check.
// Safe for concurrent use: the plan map is never modified after NewCatalog returns.
type Catalog struct {
	plans map[ID]Plan
}

// NewCatalog loads plans from src and validates them.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("plans: Source is required")
	}

	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(loaded); err != nil {
		return nil, err
	}

	plans := make(map[ID]Plan, len(loaded))
	for id, p := range loaded {
		plans[id] = p.clone()
	}

	return &Catalog{plans: plans}, nil
}

// MustCatalog is NewCatalog that panics on error. Intended for static tables.
func MustCatalog(ctx context.Context, src Source) *Catalog {
	c, err := NewCatalog(ctx, src)
	if err != nil {
		panic(fmt.Sprintf("plans: %v", err))
	}
	return c
}

// GetPlan returns a copy of the plan with the given id.
func (c *Catalog) GetPlan(id ID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p.clone(), nil
}

// GetLimit returns the per-period quota of feature on plan id.
func (c *Catalog) GetLimit(id ID, feature Feature) (Quota, error) {
	p, ok := c.plans[id]
	if !ok {
		return Quota{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	if !feature.Valid() {
		return Quota{}, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	return p.Limit(feature), nil
}

// HasFeature reports whether plan id includes the feature. Unknown plans have no features.
func (c *Catalog) HasFeature(id ID, feature Feature) bool {
	p, ok := c.plans[id]
	return ok && p.HasFeature(feature)
}

// Plans returns every plan ordered by price, cheapest first.
func (c *Catalog) Plans() []Plan {
	list := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		list = append(list, p.clone())
	}
	slices.SortFunc(list, func(a, b Plan) int {
		if n := cmp.Compare(a.Price.Amount, b.Price.Amount); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list
}

// validatePlans catches configuration mistakes at startup rather than on the request path.
func validatePlans(plans map[ID]Plan) error {
	if _, ok := plans[Free]; !ok {
		return errors.Join(ErrInvalidPlanConfiguration,
			fmt.Errorf("plan %q is required as the fallback plan", Free))
	}

	for id, p := range plans {
		if !id.Valid() {
			return errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("%w: %q", ErrUnknownPlan, id))
		}
		if p.ID != id {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", id, p.ID))
		}
		if p.TrialDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", id, p.TrialDays))
		}
		for f := range p.Limits {
			if !f.Valid() {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s: %w: %q", id, ErrUnknownFeature, f))
			}
		}
		for _, f := range p.Features {
			if !f.Valid() {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s: %w: %q", id, ErrUnknownFeature, f))
			}
			if _, ok := p.Limits[f]; !ok {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s lists feature %s without a limit", id, f))
			}
		}
	}
	return nil
}
