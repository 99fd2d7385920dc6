package geocode

import (
	"context"

	"go.uber.org/zap"
)

// Resolver implements the name-then-address lookup. It never returns an
// error: a failed call is logged and treated as no result for that tier.
type Resolver struct {
	client Client
	policy *Policy
	city   string
}

// NewResolver creates a Resolver that queries within city.
func NewResolver(client Client, policy *Policy, city string) *Resolver {
	return &Resolver{client: client, policy: policy, city: city}
}

// Policy returns the precision policy the resolver applies.
func (r *Resolver) Policy() *Policy { return r.policy }

// Resolve looks up an entity by name and falls back to its address:
//  1. an acceptable name match is returned at once;
//  2. otherwise any address match wins;
//  3. otherwise the imprecise name match, if any;
//  4. otherwise nil.
func (r *Resolver) Resolve(ctx context.Context, name, address string) *Result {
	log := zap.L().With(zap.String("name", name))

	byName := r.Lookup(ctx, name)
	if byName != nil && r.policy.Acceptable(byName.Level) {
		log.Debug("resolve: name match", zap.String("level", byName.Level))
		return byName
	}

	if address != "" {
		if byAddr := r.Lookup(ctx, address); byAddr != nil {
			log.Debug("resolve: address match", zap.String("address", address), zap.String("level", byAddr.Level))
			return byAddr
		}
	}

	if byName != nil {
		log.Debug("resolve: keeping imprecise name match", zap.String("level", byName.Level))
		return byName
	}

	log.Debug("resolve: no match")
	return nil
}

// Lookup is a single query under the resolver's city. It returns nil when the
// call fails or nothing matched.
func (r *Resolver) Lookup(ctx context.Context, query string) *Result {
	res, err := r.client.Geocode(ctx, query, r.city)
	if err != nil {
		zap.L().Warn("geocode: lookup failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if res == nil || !res.Matched {
		return nil
	}
	return res
}
