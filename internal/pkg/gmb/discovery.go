package gmb

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// AllAccessibleLocations enumerates every location reachable through any of
// the credential's account memberships. Results are de-duplicated by derived
// location id, since a location shared into several accounts is reachable
// more than once. A failing account is logged and skipped; the traversal
// returns the union of the accounts that succeeded.
func (c *Client) AllAccessibleLocations(ctx context.Context) ([]Location, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := []Location{}

	for _, account := range accounts {
		locations, err := c.Locations(ctx, account.ID)
		if err != nil {
			// Only auth expiry escapes Locations; per-account remote errors
			// already degraded to an empty slice and were logged there.
			return nil, err
		}
		if len(locations) == 0 {
			log.Debugf("[GMB] No locations for account %s", account.Name)
		}

		for _, loc := range locations {
			key := loc.ID
			if key == "" {
				key = loc.Name
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, loc)
		}
	}

	return out, nil
}
