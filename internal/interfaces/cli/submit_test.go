package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/internal/config"
	"github.com/turtacn/MolFrag/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

type recordingPublisher struct {
	msgs   []*kafka.ProducerMessage
	closed bool
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg *kafka.ProducerMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func stubPublisher(t *testing.T, pub *recordingPublisher) {
	t.Helper()
	orig := newJobPublisher
	newJobPublisher = func(config.KafkaConfig, logging.Logger) (jobPublisher, error) { return pub, nil }
	t.Cleanup(func() { newJobPublisher = orig })
}

func TestSubmitCmd(t *testing.T) {
	pub := &recordingPublisher{}
	stubPublisher(t, pub)

	out, _, err := execute(t, "NCCO amine\n", "submit", "CCO", "-i", "-", "--max-cuts", "2", "-o", "json")
	require.NoError(t, err)
	assert.True(t, pub.closed)

	var jobs []submittedJob
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	require.Len(t, jobs, 2)
	assert.NotEmpty(t, jobs[0].JobID)
	assert.Equal(t, "CCO", jobs[0].SMILES)
	assert.Equal(t, "amine", jobs[1].JobID)

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, config.DefaultKafkaRequestTopic, pub.msgs[1].Topic)
	assert.Equal(t, []byte("amine"), pub.msgs[1].Key)

	env, err := kafka.MessageToEventEnvelope(&kafka.Message{Value: pub.msgs[1].Value})
	require.NoError(t, err)
	assert.Equal(t, kafka.EventFragmentRequested, env.EventType)
	var job fragment.JobRequest
	require.NoError(t, env.DecodePayload(&job))
	assert.Equal(t, "amine", job.JobID)
	assert.Equal(t, "amine", job.Request.ID)
	assert.Equal(t, "NCCO", job.Request.SMILES)
	assert.Equal(t, 2, job.Request.MaxCuts)
}

func TestSubmitCmd_ValidatesBeforePublishing(t *testing.T) {
	pub := &recordingPublisher{}
	stubPublisher(t, pub)

	_, _, err := execute(t, "", "submit", "CCO", "")
	require.Error(t, err)
	assert.Empty(t, pub.msgs)
}

func TestSubmitCmd_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: kafka.ErrProducerClosed}
	stubPublisher(t, pub)

	_, _, err := execute(t, "", "submit", "CCO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit job")
	assert.True(t, pub.closed)
}

//Personal.AI order the ending
