package client

import (
	"context"

	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// FragmentationsClient calls the fragmentation endpoints.
type FragmentationsClient struct {
	client *Client
}

// Fragment fragments one molecule.  A response with Cancelled set is a
// partial result cut short by the server's request timeout.
func (f *FragmentationsClient) Fragment(ctx context.Context, req *fragment.FragmentRequest) (*fragment.FragmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp fragment.FragmentResponse
	if err := f.client.post(ctx, "/api/v1/fragmentations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FragmentBatch fragments several molecules.  Per-molecule failures are
// reported in the items, not as an error.
func (f *FragmentationsClient) FragmentBatch(ctx context.Context, req *fragment.BatchRequest) (*fragment.BatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp fragment.BatchResponse
	if err := f.client.post(ctx, "/api/v1/fragmentations/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MaximumCuts reports the number of matching bonds and the maximum useful
// number of cuts.
func (f *FragmentationsClient) MaximumCuts(ctx context.Context, req *fragment.MaxCutsRequest) (*fragment.MaxCutsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp fragment.MaxCutsResponse
	if err := f.client.post(ctx, "/api/v1/max-cuts", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Combinations lists the valid bond combinations without building
// fragments.
func (f *FragmentationsClient) Combinations(ctx context.Context, req *fragment.CombinationsRequest) (*fragment.CombinationsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp fragment.CombinationsResponse
	if err := f.client.post(ctx, "/api/v1/combinations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BondPatterns lists the bond pattern names the server accepts.
func (f *FragmentationsClient) BondPatterns(ctx context.Context) ([]string, error) {
	var resp struct {
		BondPatterns []string `json:"bond_patterns"`
	}
	if err := f.client.get(ctx, "/api/v1/bond-patterns", &resp); err != nil {
		return nil, err
	}
	return resp.BondPatterns, nil
}

//Personal.AI order the ending
