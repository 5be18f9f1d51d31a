package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "courtside/pkg/errors"
)

// AuthClient asks the auth collaborator yes/no authorization questions.
// Identities themselves come from the upstream gateway; this client never
// sees credentials. Timeouts and 5xx responses surface as retryable
// UPSTREAM_UNAVAILABLE so a transport hiccup is never mistaken for a denial.
type AuthClient struct {
	http *HttpClient
}

func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		http: NewHttpClient(baseURL, timeout),
	}
}

type ownershipResponse struct {
	IsOwner bool `json:"is_owner"`
}

// IsListingOwner reports whether identity owns the listing according to the
// auth service's account records.
func (c *AuthClient) IsListingOwner(ctx context.Context, identity, listingID string) (bool, error) {
	path := fmt.Sprintf("/v1/accounts/%s/owns/%s", url.PathEscape(identity), url.PathEscape(listingID))

	resp, err := c.http.GET(ctx, path)
	if err != nil {
		return false, apperrors.Upstream("auth service", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var body ownershipResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return false, apperrors.Upstream("auth service", fmt.Errorf("malformed ownership response: %w", err))
		}
		return body.IsOwner, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, apperrors.Upstream("auth service", fmt.Errorf("status %d", resp.StatusCode))
	default:
		return false, apperrors.Internal("Unexpected auth service response", fmt.Errorf("status %d", resp.StatusCode))
	}
}
