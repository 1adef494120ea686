package pkgrouter

import (
	"context"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// GetParam returns the trimmed path parameter key, "" when absent.
func GetParam(ctx context.Context, key string) string {
	return strings.TrimSpace(httprouter.ParamsFromContext(ctx).ByName(key))
}

// routeParams returns every path parameter of the matched route, without the
// internal matched-path entry.
func routeParams(ctx context.Context) map[string]string {
	ps := httprouter.ParamsFromContext(ctx)
	if len(ps) == 0 {
		return nil
	}

	out := make(map[string]string, len(ps))
	for _, p := range ps {
		if p.Key == httprouter.MatchedRoutePathParam {
			continue
		}
		out[p.Key] = p.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
