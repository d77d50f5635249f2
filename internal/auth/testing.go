package auth

import (
	"context"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// SetClaimsForTest injects match claims into the context for testing purposes.
func SetClaimsForTest(ctx context.Context, matchID string, faction conquest.FactionID) context.Context {
	return WithClaims(ctx, &Claims{MatchID: matchID, Faction: faction})
}
