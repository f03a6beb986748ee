package ingress

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// SQSConsumer long-polls an SQS queue and feeds each delivery through the
// record processor. Messages processed before a fatal error are deleted; the
// rest stay on the queue for redelivery.
type SQSConsumer struct {
	client    *sqs.Client
	queueURL  string
	processor *Processor
	logger    zerolog.Logger
}

// NewSQSConsumer creates a consumer for the given queue URL.
func NewSQSConsumer(ctx context.Context, queueURL, region string, processor *Processor, logger zerolog.Logger) (*SQSConsumer, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("queue url is required")
	}

	var optFns []func(*config.LoadOptions) error
	if region != "" {
		optFns = append(optFns, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSConsumer{
		client:    sqs.NewFromConfig(awsCfg),
		queueURL:  queueURL,
		processor: processor,
		logger:    logger,
	}, nil
}

// Run polls until the context is canceled.
func (c *SQSConsumer) Run(ctx context.Context) error {
	c.logger.Info().Str("queue_url", c.queueURL).Msg("sqs consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("receive failed")
			continue
		}
		if len(out.Messages) == 0 {
			continue
		}

		c.handleDelivery(ctx, out.Messages)
	}
}

func (c *SQSConsumer) handleDelivery(ctx context.Context, messages []types.Message) {
	records := make([]Record, 0, len(messages))
	for _, msg := range messages {
		records = append(records, Record{
			ID:   aws.ToString(msg.MessageId),
			Body: []byte(aws.ToString(msg.Body)),
		})
	}

	reports, err := c.processor.ProcessRecords(ctx, records)
	if err != nil {
		c.logger.Error().
			Err(err).
			Int("processed", len(reports)).
			Int("received", len(messages)).
			Msg("delivery aborted, unprocessed messages will redeliver")
	}

	// Reports line up with the leading processed records.
	for i := range reports {
		_, delErr := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: messages[i].ReceiptHandle,
		})
		if delErr != nil {
			c.logger.Warn().
				Str("message_id", aws.ToString(messages[i].MessageId)).
				Err(delErr).
				Msg("failed to delete processed message")
		}
	}
}
