package service

import (
	"context"

	"grisera/internal/domain"
)

// AppearanceService stores the occlusion and somatotype variants of
// appearances in one collection, tagged by appearance_type
type AppearanceService struct {
	*Entity
}

// SaveOcclusion creates an occlusion appearance
func (s *AppearanceService) SaveOcclusion(ctx context.Context, in domain.OcclusionIn) (domain.Document, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	return s.saveVariant(ctx, domain.AppearanceOcclusion, in)
}

// SaveSomatotype creates a somatotype appearance. Every component must lie
// within the somatotype scale.
func (s *AppearanceService) SaveSomatotype(ctx context.Context, in domain.SomatotypeIn) (domain.Document, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if !in.InScale() {
		return nil, domain.Invalid(domain.ErrScaleRange)
	}
	return s.saveVariant(ctx, domain.AppearanceSomatotype, in)
}

func (s *AppearanceService) saveVariant(ctx context.Context, kind domain.AppearanceKind, in any) (domain.Document, error) {
	doc, err := domain.ToDocument(in)
	if err != nil {
		return nil, err
	}
	doc[domain.AppearanceTypeKey] = string(kind)
	return s.SaveDocument(ctx, doc)
}

// UpdateOcclusion replaces the properties of an occlusion appearance. Any
// other variant is reported as not found.
func (s *AppearanceService) UpdateOcclusion(ctx context.Context, id string, in domain.OcclusionIn) (domain.Result, error) {
	if err := Validate(in); err != nil {
		return domain.Result{}, err
	}
	return s.updateVariant(ctx, id, domain.AppearanceOcclusion, in)
}

// UpdateSomatotype replaces the properties of a somatotype appearance. Any
// other variant is reported as not found.
func (s *AppearanceService) UpdateSomatotype(ctx context.Context, id string, in domain.SomatotypeIn) (domain.Result, error) {
	if err := Validate(in); err != nil {
		return domain.Result{}, err
	}
	if !in.InScale() {
		return domain.Result{}, domain.Invalid(domain.ErrScaleRange)
	}
	return s.updateVariant(ctx, id, domain.AppearanceSomatotype, in)
}

func (s *AppearanceService) updateVariant(ctx context.Context, id string, kind domain.AppearanceKind, in any) (domain.Result, error) {
	res, err := s.Get(ctx, id, 0, domain.NoSource)
	if err != nil || !res.IsFound() {
		return res, err
	}
	if domain.AppearanceKindOf(res.Document()) != kind {
		return s.notFound(id), nil
	}
	props, err := domain.ToDocument(in)
	if err != nil {
		return domain.Result{}, err
	}
	props[domain.AppearanceTypeKey] = string(kind)
	return s.UpdatePropertiesDocument(ctx, id, props)
}
