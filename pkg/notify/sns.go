package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS client used for delivery.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes to a topic ARN or sends an SMS to an E.164 number.
type SNSNotifier struct {
	client SNSAPI
}

// NewSNSNotifier loads the default AWS configuration for region.
func NewSNSNotifier(ctx context.Context, region string) (*SNSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSNSNotifierWithClient(sns.NewFromConfig(cfg)), nil
}

// NewSNSNotifierWithClient wraps an existing SNS client.
func NewSNSNotifierWithClient(client SNSAPI) *SNSNotifier {
	return &SNSNotifier{client: client}
}

// Send implements Notifier.
func (n *SNSNotifier) Send(ctx context.Context, to, subject, body string) Result {
	input := &sns.PublishInput{Message: aws.String(body)}
	if strings.HasPrefix(to, "arn:") {
		input.TopicArn = aws.String(to)
		// SNS subjects are limited to 100 characters.
		if len(subject) > 100 {
			subject = subject[:100]
		}
		if subject != "" {
			input.Subject = aws.String(subject)
		}
	} else {
		input.PhoneNumber = aws.String(to)
		input.Message = aws.String(subject + ": " + body)
	}
	if _, err := n.client.Publish(ctx, input); err != nil {
		return Failed("sns publish to %s: %v", to, err)
	}
	return Delivered()
}
