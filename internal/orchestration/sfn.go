package orchestration

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
)

// SFNTrigger starts AWS Step Functions executions.
type SFNTrigger struct {
	client          *sfn.Client
	stateMachineArn string
}

// NewSFNTrigger creates a Step Functions trigger for the given state machine.
func NewSFNTrigger(ctx context.Context, stateMachineArn, region string) (*SFNTrigger, error) {
	if stateMachineArn == "" {
		return nil, fmt.Errorf("state machine arn is required")
	}

	var optFns []func(*config.LoadOptions) error
	if region != "" {
		optFns = append(optFns, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SFNTrigger{
		client:          sfn.NewFromConfig(awsCfg),
		stateMachineArn: stateMachineArn,
	}, nil
}

// StartExecution starts one state machine execution carrying the original
// payload and the trace header.
func (t *SFNTrigger) StartExecution(ctx context.Context, name string, input []byte, traceparent string) (string, error) {
	req := &sfn.StartExecutionInput{
		StateMachineArn: aws.String(t.stateMachineArn),
		Name:            aws.String(name),
		Input:           aws.String(string(input)),
	}
	if traceparent != "" {
		req.TraceHeader = aws.String(traceparent)
	}

	out, err := t.client.StartExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("start execution: %w", err)
	}
	return aws.ToString(out.ExecutionArn), nil
}
