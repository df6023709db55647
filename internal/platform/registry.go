package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// Register implements the FunctionRegistry interface.
func (c *Client) Register(ctx context.Context, locationID string, spec schema.KpiFunctionDef) error {
	path, err := c.locationPath(ctx, locationID, "kpiFunctions")
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, path, spec)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Unregister implements the FunctionRegistry interface.
func (c *Client) Unregister(ctx context.Context, locationID, functionName string) error {
	path, err := c.locationPath(ctx, locationID, "kpiFunctions/"+url.PathEscape(functionName))
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		if isNotFound(err) {
			return &contract.NotFoundError{Kind: "kpi function", Name: functionName}
		}
		return err
	}
	return nil
}
