package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// Spaces are leaves; the API is never asked for their sublocations.
const maxLocationDepth = 2

// wireSite is a site as served by the sites search endpoint.
type wireSite struct {
	UUID  string `json:"uuid"`
	Alias string `json:"alias"`
}

// wireLocation is a location as served by the locations endpoints.
type wireLocation struct {
	UUID  string `json:"uuid"`
	Alias string `json:"alias"`
}

// locationsEnvelope wraps the result list of the locations endpoints.
type locationsEnvelope struct {
	Results []wireLocation `json:"results"`
}

// itemsEnvelope wraps the result list of the data items endpoint.
type itemsEnvelope struct {
	Results []schema.DataItemDescriptor `json:"results"`
}

// defsEnvelope wraps the result list of the KPI functions endpoint.
type defsEnvelope struct {
	Results []schema.KpiFunctionDef `json:"results"`
}

// searchSitesRequest is the body of the sites search endpoint.
type searchSitesRequest struct {
	Search string `json:"search"`
}

// SearchSites implements the MetadataSource interface.
func (c *Client) SearchSites(ctx context.Context, pattern string) ([]schema.Site, error) {
	wire, err := c.searchSites(ctx, pattern)
	if err != nil {
		return nil, err
	}
	sites := make([]schema.Site, len(wire))
	for i, site := range wire {
		sites[i] = schema.Site{ID: site.UUID, Name: site.Alias}
	}
	return sites, nil
}

func (c *Client) searchSites(ctx context.Context, pattern string) ([]wireSite, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v2/core/sites/search", searchSitesRequest{Search: pattern})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var sites []wireSite
	if err := decodeBody(resp.Body, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// resolveSite maps a site name to its UUID, caching the answer. An exact
// alias match wins; a single search result is accepted as-is.
func (c *Client) resolveSite(ctx context.Context, site string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.siteID != "" {
		return c.siteID, nil
	}

	sites, err := c.searchSites(ctx, site)
	if err != nil {
		return "", err
	}
	for _, candidate := range sites {
		if candidate.Alias == site {
			c.siteID = candidate.UUID
			return c.siteID, nil
		}
	}
	if len(sites) == 1 {
		c.siteID = sites[0].UUID
		return c.siteID, nil
	}
	return "", &contract.NotFoundError{Kind: "site", Name: site}
}

// ListLocations implements the MetadataSource interface. The hierarchy is
// expanded breadth first: the site's top locations are buildings, their
// sublocations floors, and those of floors spaces. Parent links and depth
// are annotated on the way; API order is preserved within each level.
func (c *Client) ListLocations(ctx context.Context, _, site string) ([]*schema.LocationNode, error) {
	siteID, err := c.resolveSite(ctx, site)
	if err != nil {
		return nil, err
	}

	var roots locationsEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v2/core/sites/%s/locations", url.PathEscape(siteID)), &roots); err != nil {
		return nil, err
	}

	type frame struct {
		raw      wireLocation
		depth    int
		parentID string
	}
	queue := make([]frame, 0, len(roots.Results))
	for _, root := range roots.Results {
		queue = append(queue, frame{raw: root})
	}

	var out []*schema.LocationNode
	byID := make(map[string]*schema.LocationNode)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		node := &schema.LocationNode{
			ID:       next.raw.UUID,
			Name:     next.raw.Alias,
			Kind:     schema.KindForDepth(next.depth),
			ParentID: next.parentID,
			Depth:    next.depth,
		}
		out = append(out, node)
		byID[node.ID] = node
		if parent, ok := byID[next.parentID]; ok {
			parent.Children = append(parent.Children, node)
		}

		if next.depth >= maxLocationDepth {
			continue
		}
		var subs locationsEnvelope
		path := fmt.Sprintf("/api/v2/core/sites/%s/locations/%s/sublocations",
			url.PathEscape(siteID), url.PathEscape(node.ID))
		if err := c.getJSON(ctx, path, &subs); err != nil {
			return nil, err
		}
		for _, sub := range subs.Results {
			queue = append(queue, frame{raw: sub, depth: next.depth + 1, parentID: node.ID})
		}
	}
	return out, nil
}

// GetDataItems implements the MetadataSource interface.
func (c *Client) GetDataItems(ctx context.Context, locationID string) ([]schema.DataItemDescriptor, error) {
	path, err := c.locationPath(ctx, locationID, "dataItems")
	if err != nil {
		return nil, err
	}
	var envelope itemsEnvelope
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		if isNotFound(err) {
			return nil, &contract.NotFoundError{Kind: "location", Name: locationID}
		}
		return nil, err
	}
	return envelope.Results, nil
}

// GetFunctionDefs implements the MetadataSource interface.
func (c *Client) GetFunctionDefs(ctx context.Context, locationID string) ([]schema.KpiFunctionDef, error) {
	path, err := c.locationPath(ctx, locationID, "kpiFunctions")
	if err != nil {
		return nil, err
	}
	var envelope defsEnvelope
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		if isNotFound(err) {
			return nil, &contract.NotFoundError{Kind: "location", Name: locationID}
		}
		return nil, err
	}
	return envelope.Results, nil
}

// locationPath builds a site-scoped location endpoint path.
func (c *Client) locationPath(ctx context.Context, locationID, resource string) (string, error) {
	siteID, err := c.resolveSite(ctx, c.site)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/api/v2/core/sites/%s/locations/%s/%s",
		url.PathEscape(siteID), url.PathEscape(locationID), resource), nil
}
