package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/pkg/errors"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

type fragmentOptions struct {
	input              string
	minCuts            int
	maxCuts            int
	bondPattern        string
	bondInsertion      bool
	bonds              []int
	maxValueHeavyAtoms int
	minKeyValueRatio   float64
	keepAllComponents  bool
}

// NewFragmentCmd creates the fragment command.
func NewFragmentCmd() *cobra.Command {
	opts := &fragmentOptions{}

	cmd := &cobra.Command{
		Use:   "fragment [SMILES...]",
		Short: "Fragment molecules by cutting matching bonds",
		Long: "Fragment one or more molecules.  Each record pairs a key (the leaves,\n" +
			"joined with '.') with a value (the core).  Molecules are read from the\n" +
			"arguments or, with --input, from a SMILES file where each line holds a\n" +
			"SMILES and an optional identifier.",
		Example: "  molfrag fragment NCCO --max-cuts 2\n" +
			"  molfrag fragment --input compounds.smi -o json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFragment(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "SMILES file to read, '-' for stdin")
	f.IntVar(&opts.minCuts, "min-cuts", 0, "minimum number of cuts (default 1)")
	f.IntVar(&opts.maxCuts, "max-cuts", 0, "maximum number of cuts (default from config)")
	f.StringVar(&opts.bondPattern, "bond-pattern", "", "cuttable bond pattern (see 'molfrag patterns')")
	f.BoolVar(&opts.bondInsertion, "bond-insertion", false, "also emit bond insertion records for single cuts")
	f.IntSliceVar(&opts.bonds, "bonds", nil, "fragment exactly these bond indices instead of enumerating")
	f.IntVar(&opts.maxValueHeavyAtoms, "max-value-heavy-atoms", 0, "drop records whose core exceeds this many heavy atoms")
	f.Float64Var(&opts.minKeyValueRatio, "min-key-value-ratio", 0, "drop records whose key/value heavy atom ratio is below this")
	f.BoolVar(&opts.keepAllComponents, "keep-all-components", false, "do not strip salts and other minor components")
	return cmd
}

// smilesEntry is one molecule to fragment.
type smilesEntry struct {
	SMILES string
	ID     string
}

// label names the molecule in text and table output.
func (e smilesEntry) label() string {
	if e.ID != "" {
		return e.ID
	}
	return e.SMILES
}

func runFragment(cmd *cobra.Command, args []string, opts *fragmentOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	entries, err := collectEntries(cmd, args, opts.input)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New(errors.ErrCodeBadRequest, "no molecules given; pass SMILES arguments or --input")
	}

	reqs := make([]fragment.FragmentRequest, len(entries))
	for i, e := range entries {
		reqs[i] = opts.request(cmd, e)
	}

	ctx, cancel := cliCtx.operationContext(cmd.Context())
	defer cancel()

	if len(reqs) == 1 {
		resp, err := cliCtx.Service.Fragment(ctx, &reqs[0])
		if err != nil {
			return err
		}
		if resp.Cancelled {
			cliCtx.Logger.Warn("timeout reached, output is partial", logging.String("smiles", resp.SMILES))
		}
		return PrintResult(cmd, fragmentOutput{
			Results: []*fragment.FragmentResponse{resp},
			Labels:  []string{entries[0].label()},
		})
	}

	out := batchOutput{labels: make([]string, len(entries))}
	for i, e := range entries {
		out.labels[i] = e.label()
	}
	for start := 0; start < len(reqs); start += fragment.MaxBatchSize {
		end := start + fragment.MaxBatchSize
		if end > len(reqs) {
			end = len(reqs)
		}
		resp, err := cliCtx.Service.FragmentBatch(ctx, &fragment.BatchRequest{Requests: reqs[start:end]})
		if err != nil {
			return err
		}
		for _, item := range resp.Items {
			item.Index += start
			out.resp.Items = append(out.resp.Items, item)
		}
		out.resp.Succeeded += resp.Succeeded
		out.resp.Failed += resp.Failed
	}

	for _, item := range out.resp.Items {
		if item.Error != nil {
			cliCtx.Logger.Warn("molecule failed",
				logging.Int("index", item.Index),
				logging.String("smiles", reqs[item.Index].SMILES),
				logging.String("code", item.Error.Code),
				logging.String("error", item.Error.Message))
		}
	}
	if err := PrintResult(cmd, out); err != nil {
		return err
	}
	if out.resp.Failed > 0 {
		return errors.Newf(errors.ErrCodeFragmentationFailed, "%d of %d molecules failed", out.resp.Failed, len(reqs))
	}
	return nil
}

func (o *fragmentOptions) request(cmd *cobra.Command, e smilesEntry) fragment.FragmentRequest {
	req := fragment.FragmentRequest{
		ID:                e.ID,
		SMILES:            e.SMILES,
		MinCuts:           o.minCuts,
		MaxCuts:           o.maxCuts,
		BondPattern:       o.bondPattern,
		BondInsertion:     o.bondInsertion,
		Bonds:             o.bonds,
		KeepAllComponents: o.keepAllComponents,
	}
	if cmd.Flags().Changed("max-value-heavy-atoms") {
		v := o.maxValueHeavyAtoms
		req.MaxValueHeavyAtoms = &v
	}
	if cmd.Flags().Changed("min-key-value-ratio") {
		v := o.minKeyValueRatio
		req.MinKeyValueRatio = &v
	}
	return req
}

// collectEntries gathers molecules from args and the optional input file.
func collectEntries(cmd *cobra.Command, args []string, input string) ([]smilesEntry, error) {
	entries := make([]smilesEntry, 0, len(args))
	for _, a := range args {
		entries = append(entries, smilesEntry{SMILES: a})
	}
	if input == "" {
		return entries, nil
	}

	var r io.Reader
	if input == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(input)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open input file")
		}
		defer f.Close()
		r = f
	}

	fromFile, err := readSMILESFile(r)
	if err != nil {
		return nil, err
	}
	return append(entries, fromFile...), nil
}

// readSMILESFile parses "SMILES [ID]" lines.  Blank lines and lines starting
// with '#' are skipped.
func readSMILESFile(r io.Reader) ([]smilesEntry, error) {
	var entries []smilesEntry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), fragment.MaxSMILESLength*4)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		e := smilesEntry{SMILES: fields[0]}
		if len(fields) > 1 {
			e.ID = fields[1]
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read input")
	}
	return entries, nil
}

// fragmentOutput renders one or more fragmentation results.  Labels holds
// the display name of each result.
type fragmentOutput struct {
	Results []*fragment.FragmentResponse
	Labels  []string
}

func (o fragmentOutput) MarshalJSON() ([]byte, error) {
	if len(o.Results) == 1 {
		return json.Marshal(o.Results[0])
	}
	return json.Marshal(o.Results)
}

// String renders one tab separated line per record: molecule, cuts, key,
// value.
func (o fragmentOutput) String() string {
	var sb strings.Builder
	for i, resp := range o.Results {
		for _, rec := range resp.Records {
			fmt.Fprintf(&sb, "%s\t%d\t%s\t%s\n", o.Labels[i], rec.Cuts, rec.Key, rec.Value)
		}
	}
	return sb.String()
}

func (o fragmentOutput) TableHeaders() []string {
	return []string{"MOLECULE", "CUTS", "BONDS", "KEY", "VALUE"}
}

func (o fragmentOutput) TableRows() [][]string {
	var rows [][]string
	for i, resp := range o.Results {
		for _, rec := range resp.Records {
			rows = append(rows, []string{o.Labels[i], strconv.Itoa(rec.Cuts), bondList(rec.Bonds), rec.Key, rec.Value})
		}
	}
	return rows
}

func bondList(bonds []fragment.Bond) string {
	parts := make([]string, len(bonds))
	for i, b := range bonds {
		parts[i] = strconv.Itoa(b.Index)
	}
	return strings.Join(parts, ",")
}

// batchOutput renders a batch, skipping failed molecules in text and
// table form.
type batchOutput struct {
	resp   fragment.BatchResponse
	labels []string
}

func (o batchOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.resp)
}

func (o batchOutput) results() fragmentOutput {
	var out fragmentOutput
	for _, item := range o.resp.Items {
		if item.Result != nil {
			out.Results = append(out.Results, item.Result)
			out.Labels = append(out.Labels, o.labels[item.Index])
		}
	}
	return out
}

func (o batchOutput) String() string         { return o.results().String() }
func (o batchOutput) TableHeaders() []string { return o.results().TableHeaders() }
func (o batchOutput) TableRows() [][]string  { return o.results().TableRows() }

//Personal.AI order the ending
