package preferences

import (
	"context"
	"fmt"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/snapshots"
)

type CatalogSource interface {
	Catalog(id string) (*catalog.Catalog, error)
}

type Service struct {
	catalogs CatalogSource
	repo     *snapshots.Repository
}

func NewService(catalogs CatalogSource, repo *snapshots.Repository) *Service {
	return &Service{
		catalogs: catalogs,
		repo:     repo,
	}
}

func (s *Service) GetOrDefault(ctx context.Context, ownerUserID string) (PreferencesResponse, error) {
	saved, err := snapshots.Load[*PreferencesDTO](ctx, s.repo, ownerUserID, snapshots.KeyUserState, nil)
	if err != nil {
		return PreferencesResponse{}, err
	}

	if saved == nil {
		prefs := defaults()
		return PreferencesResponse{Preferences: prefs, ProteinTargetG: prefs.ProteinTarget(), IsDefault: true}, nil
	}

	prefs := saved.Normalize()
	if prefs.Validate() != nil {
		// stale values from an older client
		prefs = defaults()
		return PreferencesResponse{Preferences: prefs, ProteinTargetG: prefs.ProteinTarget(), IsDefault: true}, nil
	}
	return PreferencesResponse{Preferences: prefs, ProteinTargetG: prefs.ProteinTarget()}, nil
}

func (s *Service) Upsert(ctx context.Context, ownerUserID string, dto PreferencesDTO) (PreferencesResponse, error) {
	dto = dto.Normalize()
	if err := dto.Validate(); err != nil {
		return PreferencesResponse{}, err
	}
	if dto.CatalogID != "" {
		if _, err := s.catalogs.Catalog(dto.CatalogID); err != nil {
			return PreferencesResponse{}, fmt.Errorf("%w: unknown catalog_id %q", ErrValidation, dto.CatalogID)
		}
	}

	if err := snapshots.Save(ctx, s.repo, ownerUserID, snapshots.KeyUserState, dto); err != nil {
		return PreferencesResponse{}, err
	}
	return PreferencesResponse{Preferences: dto, ProteinTargetG: dto.ProteinTarget()}, nil
}
