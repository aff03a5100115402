package store

import (
	"context"
	"encoding/json"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
)

const (
	viewMine = "mine"
	viewAll  = "all"
)

func (s *Store) MyProperties() []types.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.properties.View(viewMine)
}

func (s *Store) CurrentProperty() (types.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.properties.Current(viewCurrent)
}

func (s *Store) FetchMyProperties(ctx context.Context) ([]types.Property, error) {
	return run(ctx, s, SliceProperties, effects.OpFetchMyProperties, s.api.Properties.ListMine, func(items []types.Property) {
		s.properties.ReplaceView(viewMine, items)
	})
}

func (s *Store) FetchProperty(ctx context.Context, id string) (types.Property, error) {
	return run(ctx, s, SliceProperties, effects.OpFetchProperty, func(ctx context.Context) (*types.Envelope[types.Property], error) {
		return s.api.Properties.Get(ctx, id)
	}, func(p types.Property) {
		s.properties.SetCurrent(viewCurrent, p)
	})
}

func (s *Store) CreateProperty(ctx context.Context, req types.CreatePropertyRequest) (types.Property, error) {
	return run(ctx, s, SliceProperties, effects.OpCreateProperty, func(ctx context.Context) (*types.Envelope[types.Property], error) {
		return s.api.Properties.Create(ctx, req)
	}, func(p types.Property) {
		s.properties.Prepend(viewMine, p)
	})
}

func (s *Store) UpdateProperty(ctx context.Context, id string, req types.UpdatePropertyRequest) (types.Property, error) {
	return run(ctx, s, SliceProperties, effects.OpUpdateProperty, func(ctx context.Context) (*types.Envelope[types.Property], error) {
		return s.api.Properties.Update(ctx, id, req)
	}, func(p types.Property) {
		s.properties.Upsert(p)
	})
}

// DeleteProperty also drops the property's ads.
func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	_, err := run(ctx, s, SliceProperties, effects.OpDeleteProperty, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.Properties.Delete(ctx, id)
	}, func(json.RawMessage) {
		s.properties.Remove(id)
		s.ads.RemoveWhere(func(ad types.PropertyAd) bool { return ad.PropertyID == id })
	})
	return err
}

// Ads returns the tenant-facing listing from the last FetchAds.
func (s *Store) Ads() []types.PropertyAd {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ads.View(viewAll)
}

func (s *Store) MyAds() []types.PropertyAd {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ads.View(viewMine)
}

func (s *Store) CurrentAd() (types.PropertyAd, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ads.Current(viewCurrent)
}

func (s *Store) FetchAds(ctx context.Context, filter types.AdFilter) ([]types.PropertyAd, error) {
	return run(ctx, s, SlicePropertyAds, effects.OpFetchAds, func(ctx context.Context) (*types.Envelope[[]types.PropertyAd], error) {
		return s.api.PropertyAds.List(ctx, filter)
	}, func(items []types.PropertyAd) {
		s.ads.ReplaceView(viewAll, items)
	})
}

func (s *Store) FetchMyAds(ctx context.Context) ([]types.PropertyAd, error) {
	return run(ctx, s, SlicePropertyAds, effects.OpFetchMyAds, s.api.PropertyAds.ListMine, func(items []types.PropertyAd) {
		s.ads.ReplaceView(viewMine, items)
	})
}

func (s *Store) FetchAd(ctx context.Context, id string) (types.PropertyAd, error) {
	return run(ctx, s, SlicePropertyAds, effects.OpFetchAd, func(ctx context.Context) (*types.Envelope[types.PropertyAd], error) {
		return s.api.PropertyAds.Get(ctx, id)
	}, func(ad types.PropertyAd) {
		s.ads.SetCurrent(viewCurrent, ad)
	})
}

func (s *Store) CreateAd(ctx context.Context, req types.CreatePropertyAdRequest) (types.PropertyAd, error) {
	return run(ctx, s, SlicePropertyAds, effects.OpCreateAd, func(ctx context.Context) (*types.Envelope[types.PropertyAd], error) {
		return s.api.PropertyAds.Create(ctx, req)
	}, func(ad types.PropertyAd) {
		s.ads.Prepend(viewMine, ad)
	})
}

func (s *Store) UpdateAd(ctx context.Context, id string, req types.UpdatePropertyAdRequest) (types.PropertyAd, error) {
	return s.updateAd(ctx, effects.OpUpdateAd, id, req)
}

// ToggleAdActive flips the ad's active flag. The ad must already be loaded.
func (s *Store) ToggleAdActive(ctx context.Context, id string) (types.PropertyAd, error) {
	s.mu.RLock()
	ad, ok := s.ads.Get(id)
	s.mu.RUnlock()
	if !ok {
		return types.PropertyAd{}, s.reject(ctx, SlicePropertyAds, effects.OpToggleAdActive, apperrors.NotFound("Listing", id))
	}
	active := !ad.IsActive
	return s.updateAd(ctx, effects.OpToggleAdActive, id, types.UpdatePropertyAdRequest{IsActive: &active})
}

// updateAd applies the server's record. Inactive ads leave the tenant listing.
func (s *Store) updateAd(ctx context.Context, op effects.Op, id string, req types.UpdatePropertyAdRequest) (types.PropertyAd, error) {
	return run(ctx, s, SlicePropertyAds, op, func(ctx context.Context) (*types.Envelope[types.PropertyAd], error) {
		return s.api.PropertyAds.Update(ctx, id, req)
	}, func(ad types.PropertyAd) {
		s.ads.Upsert(ad)
		if !ad.IsActive {
			s.ads.RemoveFromView(viewAll, ad.ID)
		}
	})
}

func (s *Store) DeleteAd(ctx context.Context, id string) error {
	_, err := run(ctx, s, SlicePropertyAds, effects.OpDeleteAd, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.PropertyAds.Delete(ctx, id)
	}, func(json.RawMessage) {
		s.ads.Remove(id)
		s.joinRequests.RemoveWhere(func(r types.PropertyJoinRequest) bool { return r.AdID == id })
	})
	return err
}
