// Package fragment defines the public request/response structures of the
// MolFrag fragmentation service.  They are shared by the HTTP API, the CLI
// and the Kafka job payloads.  No domain logic lives here, only plain data
// types and their input validation.
package fragment

import (
	"fmt"
	"strings"

	"github.com/turtacn/MolFrag/pkg/errors"
)

// MaxSMILESLength bounds the size of an input structure.
const MaxSMILESLength = 4096

// MaxBatchSize bounds the number of molecules in one BatchRequest.
const MaxBatchSize = 1000

// MaxCutsLimit bounds the number of cuts a single request may ask for.
const MaxCutsLimit = 10

// ─────────────────────────────────────────────────────────────────────────────
// Requests
// ─────────────────────────────────────────────────────────────────────────────

// FragmentRequest asks for the fragmentation of one molecule.
//
// When Bonds is non-empty exactly that combination of bond indices is cut and
// MinCuts/MaxCuts are ignored.  Otherwise every valid combination of
// MinCuts..MaxCuts matching bonds is enumerated.
type FragmentRequest struct {
	// ID correlates the response with the request.  Generated when empty.
	ID string `json:"id,omitempty"`

	// SMILES is the input structure.
	SMILES string `json:"smiles"`

	// MinCuts is the smallest combination size.  Defaults to 1.
	MinCuts int `json:"min_cuts,omitempty"`

	// MaxCuts is the largest combination size.  Defaults to the configured
	// fragmentation.max_cuts.
	MaxCuts int `json:"max_cuts,omitempty"`

	// BondPattern names the matcher selecting cuttable bonds.
	BondPattern string `json:"bond_pattern,omitempty"`

	// BondInsertion adds a bond-insertion record for every single cuttable bond.
	BondInsertion bool `json:"bond_insertion,omitempty"`

	// Bonds lists explicit bond indices to cut together.
	Bonds []int `json:"bonds,omitempty"`

	MaxValueHeavyAtoms      *int     `json:"max_value_heavy_atoms,omitempty"`
	MinKeyValueRatio        *float64 `json:"min_key_value_ratio,omitempty"`
	RemoveExplicitHydrogens *bool    `json:"remove_explicit_hydrogens,omitempty"`

	// KeepAllComponents fragments a multi-component input as a whole instead
	// of its largest component.
	KeepAllComponents bool `json:"keep_all_components,omitempty"`
}

// Validate checks the request for obvious input errors.
func (r *FragmentRequest) Validate() error {
	if err := validateSMILES(r.SMILES); err != nil {
		return err
	}
	if r.MinCuts < 0 || r.MaxCuts < 0 {
		return errors.New(errors.ErrCodeValidation, "cut counts must be non-negative")
	}
	if r.MaxCuts > MaxCutsLimit {
		return errors.Newf(errors.ErrCodeValidation, "max_cuts must be ≤ %d, got %d", MaxCutsLimit, r.MaxCuts)
	}
	if r.MinCuts > 0 && r.MaxCuts > 0 && r.MaxCuts < r.MinCuts {
		return errors.Newf(errors.ErrCodeValidation, "max_cuts %d is below min_cuts %d", r.MaxCuts, r.MinCuts)
	}
	if len(r.Bonds) > MaxCutsLimit {
		return errors.Newf(errors.ErrCodeValidation, "at most %d explicit bonds may be cut, got %d", MaxCutsLimit, len(r.Bonds))
	}
	for _, b := range r.Bonds {
		if b < 0 {
			return errors.Newf(errors.ErrCodeValidation, "bond index %d is negative", b)
		}
	}
	if r.BondInsertion && len(r.Bonds) > 1 {
		return errors.New(errors.ErrCodeValidation, "bond insertion applies to a single bond")
	}
	if r.MaxValueHeavyAtoms != nil && *r.MaxValueHeavyAtoms < 0 {
		return errors.New(errors.ErrCodeValidation, "max_value_heavy_atoms must be ≥ 0")
	}
	if r.MinKeyValueRatio != nil && *r.MinKeyValueRatio < 0 {
		return errors.New(errors.ErrCodeValidation, "min_key_value_ratio must be ≥ 0")
	}
	return nil
}

// MaxCutsRequest asks for the maximum useful number of cuts of a molecule.
type MaxCutsRequest struct {
	SMILES                     string `json:"smiles"`
	BondPattern                string `json:"bond_pattern,omitempty"`
	AllowDoubleCutOfSingleBond *bool  `json:"allow_double_cut_of_single_bond,omitempty"`
}

// Validate checks the request for obvious input errors.
func (r *MaxCutsRequest) Validate() error {
	return validateSMILES(r.SMILES)
}

// CombinationsRequest asks for the valid bond combinations of a molecule
// without building fragments.
type CombinationsRequest struct {
	SMILES      string `json:"smiles"`
	BondPattern string `json:"bond_pattern,omitempty"`
	MinCuts     int    `json:"min_cuts,omitempty"`
	MaxCuts     int    `json:"max_cuts,omitempty"`
}

// Validate checks the request for obvious input errors.
func (r *CombinationsRequest) Validate() error {
	if err := validateSMILES(r.SMILES); err != nil {
		return err
	}
	if r.MinCuts < 0 || r.MaxCuts < 0 {
		return errors.New(errors.ErrCodeValidation, "cut counts must be non-negative")
	}
	if r.MaxCuts > MaxCutsLimit {
		return errors.Newf(errors.ErrCodeValidation, "max_cuts must be ≤ %d, got %d", MaxCutsLimit, r.MaxCuts)
	}
	return nil
}

// BatchRequest fragments several molecules with shared settings.  Each
// entry's own non-zero fields take precedence.
type BatchRequest struct {
	Requests []FragmentRequest `json:"requests"`
}

// Validate checks the batch size and every entry.
func (r *BatchRequest) Validate() error {
	if len(r.Requests) == 0 {
		return errors.New(errors.ErrCodeValidation, "batch must contain at least one request")
	}
	if len(r.Requests) > MaxBatchSize {
		return errors.Newf(errors.ErrCodeValidation, "batch of %d exceeds limit %d", len(r.Requests), MaxBatchSize)
	}
	for i := range r.Requests {
		if err := r.Requests[i].Validate(); err != nil {
			return errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("request %d", i))
		}
	}
	return nil
}

func validateSMILES(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New(errors.ErrCodeValidation, "smiles is required")
	}
	if len(s) > MaxSMILESLength {
		return errors.Newf(errors.ErrCodeValidation, "smiles exceeds %d characters", MaxSMILESLength)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────────────────────────────────────

// Bond is a cut bond as reported to clients.
type Bond struct {
	Index     int `json:"index"`
	Start     int `json:"start"`
	End       int `json:"end"`
	FragIndex int `json:"frag_index,omitempty"`
}

// FragmentRecord is one fragmentation in matched-pair form: the keys (leaves)
// joined with "." in attachment-index order and the value (core).
type FragmentRecord struct {
	Key             string `json:"key"`
	Value           string `json:"value"`
	Cuts            int    `json:"cuts"`
	Bonds           []Bond `json:"bonds"`
	BondInsertion   bool   `json:"bond_insertion,omitempty"`
	KeyHeavyAtoms   int    `json:"key_heavy_atoms"`
	ValueHeavyAtoms int    `json:"value_heavy_atoms"`
}

// Stats mirrors the engine work counters of one request.
type Stats struct {
	LeavesGenerated     int64 `json:"leaves_generated"`
	LeafCacheHits       int64 `json:"leaf_cache_hits"`
	LeafCacheMisses     int64 `json:"leaf_cache_misses"`
	PartitionsComputed  int64 `json:"partitions_computed"`
	CombinationsTested  int64 `json:"combinations_tested"`
	TripletsPruned      int64 `json:"triplets_pruned"`
	InvalidCombinations int64 `json:"invalid_combinations"`
	FilteredOut         int64 `json:"filtered_out"`
	FragmentSetsBuilt   int64 `json:"fragment_sets_built"`
}

// FragmentResponse carries the records produced for one FragmentRequest.
type FragmentResponse struct {
	ID              string           `json:"id"`
	SMILES          string           `json:"smiles"`
	CanonicalSMILES string           `json:"canonical_smiles"`
	HeavyAtoms      int              `json:"heavy_atoms"`
	Records         []FragmentRecord `json:"records"`
	// Cancelled marks a partial result cut short by a deadline.
	Cancelled  bool  `json:"cancelled,omitempty"`
	Cached     bool  `json:"cached,omitempty"`
	Stats      Stats `json:"stats"`
	DurationMs int64 `json:"duration_ms"`
}

// MaxCutsResponse answers a MaxCutsRequest.
type MaxCutsResponse struct {
	SMILES        string `json:"smiles"`
	MatchingBonds int    `json:"matching_bonds"`
	MaxCuts       int    `json:"max_cuts"`
}

// CombinationsResponse lists the valid combinations, each as sorted bond
// indices.
type CombinationsResponse struct {
	SMILES       string  `json:"smiles"`
	Combinations [][]int `json:"combinations"`
	Count        int     `json:"count"`
}

// BatchItem is one entry of a BatchResponse.  Exactly one of Result and
// Error is set.
type BatchItem struct {
	Index  int               `json:"index"`
	Result *FragmentResponse `json:"result,omitempty"`
	Error  *ErrorResponse    `json:"error,omitempty"`
}

// BatchResponse answers a BatchRequest in request order.
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// ErrorResponse is the error body of every API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewErrorResponse converts err into its public form.
func NewErrorResponse(err error) *ErrorResponse {
	var ae *errors.AppError
	if errors.As(err, &ae) {
		return &ErrorResponse{Code: ae.Code.String(), Message: ae.Message, Detail: ae.Detail}
	}
	return &ErrorResponse{Code: errors.ErrCodeInternal.String(), Message: err.Error()}
}

// ─────────────────────────────────────────────────────────────────────────────
// Asynchronous jobs
// ─────────────────────────────────────────────────────────────────────────────

// JobRequest is the payload of a fragmentation job on the request topic.
type JobRequest struct {
	JobID   string          `json:"job_id"`
	Request FragmentRequest `json:"request"`
}

// JobStatus is the terminal state of a job.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobResult is the payload published on the result topic.
type JobResult struct {
	JobID  string            `json:"job_id"`
	Status JobStatus         `json:"status"`
	Result *FragmentResponse `json:"result,omitempty"`
	Error  *ErrorResponse    `json:"error,omitempty"`
}

//Personal.AI order the ending
