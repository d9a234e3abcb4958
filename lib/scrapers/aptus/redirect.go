package aptus

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
)

const maxActionRedirects = 10

// the portal occasionally emits Location headers that stack the portal root
// twice, e.g. /AptusPortal/AptusPortal/CustomerBooking
var doubledPortalRoot = regexp.MustCompile(`(?i)(/aptusportal)/aptusportal/`)

func normalizeUrl(u string) string {
	return doubledPortalRoot.ReplaceAllString(u, "$1/")
}

// resolveLocation resolves a Location header against the URL that produced
// it. the portal emits absolute, root-relative and path-relative locations.
func (c *Client) resolveLocation(current, location string) string {
	if strings.HasPrefix(location, "http") {
		return normalizeUrl(location)
	}
	if strings.HasPrefix(location, "/") {
		return normalizeUrl(c.BaseUrl.String() + location)
	}
	base := current[:strings.LastIndex(current, "/")+1]
	return normalizeUrl(base + location)
}

// followRedirects issues a GET and walks 301/302 responses by hand, bounded
// by maxActionRedirects with cycle detection, returning the first response
// that carries a body.
func (c *Client) followRedirects(ctx context.Context, startUrl string) (*resty.Response, error) {
	visited := map[string]bool{}
	current := startUrl

	for redirects := 0; redirects < maxActionRedirects; redirects++ {
		if visited[current] {
			return nil, ErrRedirectLoop
		}
		visited[current] = true

		res, err := c.Http.R().
			SetContext(ctx).
			Get(current)
		if err != nil {
			return nil, err
		}

		switch {
		case res.StatusCode() == 301 || res.StatusCode() == 302:
			location := res.Header().Get("Location")
			if location == "" {
				return nil, ErrMissingLocation
			}
			current = c.resolveLocation(current, location)
		case res.IsSuccess():
			if len(res.Body()) == 0 {
				return nil, ErrEmptyBody
			}
			return res, nil
		default:
			return nil, &UnexpectedStatusError{Code: res.StatusCode()}
		}
	}

	return nil, ErrRedirectLoop
}
