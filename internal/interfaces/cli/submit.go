package cli

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/MolFrag/internal/config"
	"github.com/turtacn/MolFrag/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/interfaces/worker"
	"github.com/turtacn/MolFrag/pkg/errors"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// jobPublisher is the write side the submit command needs.
type jobPublisher interface {
	kafka.Publisher
	Close() error
}

// newJobPublisher is replaced in tests.
var newJobPublisher = func(cfg config.KafkaConfig, logger logging.Logger) (jobPublisher, error) {
	return kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Brokers,
		RequiredAcks: cfg.RequiredAcks,
		BatchSize:    1,
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
}

// submittedJob is one line of submit output.
type submittedJob struct {
	JobID  string `json:"job_id"`
	SMILES string `json:"smiles"`
}

type submitOutput []submittedJob

func (o submitOutput) String() string {
	var sb strings.Builder
	for _, j := range o {
		sb.WriteString(j.JobID + "\t" + j.SMILES + "\n")
	}
	return sb.String()
}

func (o submitOutput) TableHeaders() []string { return []string{"JOB_ID", "SMILES"} }

func (o submitOutput) TableRows() [][]string {
	rows := make([][]string, len(o))
	for i, j := range o {
		rows[i] = []string{j.JobID, j.SMILES}
	}
	return rows
}

// NewSubmitCmd creates the submit command, which queues fragmentation jobs
// for the worker instead of running them locally.
func NewSubmitCmd() *cobra.Command {
	opts := &fragmentOptions{}

	cmd := &cobra.Command{
		Use:   "submit [SMILES...]",
		Short: "Queue fragmentation jobs on Kafka for the worker",
		Long: "Publish one fragmentation job per molecule to the request topic.  The\n" +
			"worker publishes results, keyed by job ID, to the result topic.  A\n" +
			"molecule's identifier from --input is used as its job ID.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "SMILES file to read, '-' for stdin")
	f.IntVar(&opts.minCuts, "min-cuts", 0, "minimum number of cuts (default 1)")
	f.IntVar(&opts.maxCuts, "max-cuts", 0, "maximum number of cuts (default from worker config)")
	f.StringVar(&opts.bondPattern, "bond-pattern", "", "cuttable bond pattern (see 'molfrag patterns')")
	f.BoolVar(&opts.bondInsertion, "bond-insertion", false, "also emit bond insertion records for single cuts")
	f.IntVar(&opts.maxValueHeavyAtoms, "max-value-heavy-atoms", 0, "drop records whose core exceeds this many heavy atoms")
	f.Float64Var(&opts.minKeyValueRatio, "min-key-value-ratio", 0, "drop records whose key/value heavy atom ratio is below this")
	f.BoolVar(&opts.keepAllComponents, "keep-all-components", false, "do not strip salts and other minor components")
	return cmd
}

func runSubmit(cmd *cobra.Command, args []string, opts *fragmentOptions) error {
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

	jobs := make([]*fragment.JobRequest, len(entries))
	for i, e := range entries {
		job := &fragment.JobRequest{JobID: e.ID, Request: opts.request(cmd, e)}
		if job.JobID == "" {
			job.JobID = uuid.NewString()
		}
		job.Request.ID = job.JobID
		if err := job.Request.Validate(); err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "molecule "+e.label())
		}
		jobs[i] = job
	}

	pub, err := newJobPublisher(cliCtx.Config.Kafka, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(); err != nil {
			cliCtx.Logger.Warn("failed to close producer", logging.Err(err))
		}
	}()

	ctx, cancel := cliCtx.operationContext(cmd.Context())
	defer cancel()

	out := make(submitOutput, 0, len(jobs))
	for _, job := range jobs {
		msg, err := worker.NewJobMessage(cliCtx.Config.Kafka.RequestTopic, "molfrag-cli", job)
		if err != nil {
			return err
		}
		if err := pub.Publish(ctx, msg); err != nil {
			return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to submit job "+job.JobID)
		}
		out = append(out, submittedJob{JobID: job.JobID, SMILES: job.Request.SMILES})
	}
	cliCtx.Logger.Info("jobs submitted", logging.Int("count", len(out)), logging.String("topic", cliCtx.Config.Kafka.RequestTopic))
	return PrintResult(cmd, out)
}

//Personal.AI order the ending
