package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// VerifyTitle is fetched to verify the API is reachable. A missing page
// still proves the endpoint works.
const VerifyTitle = "Main Page"

// VerifyConnection checks that client can read pages.
func VerifyConnection(ctx context.Context, client PageSourceGetter) error {
	_, err := client.GetPageSource(ctx, VerifyTitle)
	if err == nil {
		return nil
	}

	var apiErr *ErrorResponse
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.NotFound():
		return nil
	case apiErr.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("authentication failed - check your access token")
	case apiErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("access denied - check your permissions")
	}
	return fmt.Errorf("unexpected status code: %d", apiErr.StatusCode)
}
