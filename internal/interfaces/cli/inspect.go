package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolFrag/internal/domain/molecule"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// NewMaxCutsCmd creates the max-cuts command.
func NewMaxCutsCmd() *cobra.Command {
	var (
		bondPattern string
		allowDouble bool
	)

	cmd := &cobra.Command{
		Use:   "max-cuts SMILES",
		Short: "Report the largest number of simultaneous cuts a molecule supports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			req := &fragment.MaxCutsRequest{SMILES: args[0], BondPattern: bondPattern}
			if cmd.Flags().Changed("allow-double-cut") {
				req.AllowDoubleCutOfSingleBond = &allowDouble
			}

			ctx, cancel := cliCtx.operationContext(cmd.Context())
			defer cancel()
			resp, err := cliCtx.Service.MaximumCuts(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, maxCutsOutput(*resp))
		},
	}
	cmd.Flags().StringVar(&bondPattern, "bond-pattern", "", "cuttable bond pattern (see 'molfrag patterns')")
	cmd.Flags().BoolVar(&allowDouble, "allow-double-cut", false, "count a single matching bond as two cuts (bond insertion)")
	return cmd
}

type maxCutsOutput fragment.MaxCutsResponse

func (o maxCutsOutput) String() string {
	return fmt.Sprintf("matching bonds: %d\nmax cuts: %d\n", o.MatchingBonds, o.MaxCuts)
}

func (o maxCutsOutput) TableHeaders() []string {
	return []string{"SMILES", "MATCHING_BONDS", "MAX_CUTS"}
}

func (o maxCutsOutput) TableRows() [][]string {
	return [][]string{{o.SMILES, strconv.Itoa(o.MatchingBonds), strconv.Itoa(o.MaxCuts)}}
}

// NewCombinationsCmd creates the combinations command.
func NewCombinationsCmd() *cobra.Command {
	req := &fragment.CombinationsRequest{}

	cmd := &cobra.Command{
		Use:   "combinations SMILES",
		Short: "List the bond index combinations that yield a valid fragmentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			req.SMILES = args[0]

			ctx, cancel := cliCtx.operationContext(cmd.Context())
			defer cancel()
			resp, err := cliCtx.Service.EnumerateCombinations(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, combinationsOutput(*resp))
		},
	}
	cmd.Flags().StringVar(&req.BondPattern, "bond-pattern", "", "cuttable bond pattern (see 'molfrag patterns')")
	cmd.Flags().IntVar(&req.MinCuts, "min-cuts", 0, "minimum number of cuts (default 1)")
	cmd.Flags().IntVar(&req.MaxCuts, "max-cuts", 0, "maximum number of cuts (default from config)")
	return cmd
}

type combinationsOutput fragment.CombinationsResponse

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (o combinationsOutput) String() string {
	var sb strings.Builder
	for _, c := range o.Combinations {
		sb.WriteString(joinInts(c))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (o combinationsOutput) TableHeaders() []string {
	return []string{"CUTS", "BONDS"}
}

func (o combinationsOutput) TableRows() [][]string {
	rows := make([][]string, len(o.Combinations))
	for i, c := range o.Combinations {
		rows[i] = []string{strconv.Itoa(len(c)), joinInts(c)}
	}
	return rows
}

// NewPatternsCmd creates the patterns command.
func NewPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the supported cuttable bond patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, map[string][]string{"bond_patterns": molecule.BondPatterns()})
			}
			for _, p := range molecule.BondPatterns() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

//Personal.AI order the ending
