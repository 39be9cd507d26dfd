// Package notify delivers applicant and staff notifications over email or SNS.
//
// Notifiers never return errors: delivery problems are reported through Result
// so callers can log them without aborting the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Result reports the outcome of one delivery attempt.
type Result struct {
	Delivered bool
	Reason    string
}

// Delivered is the successful Result.
func Delivered() Result { return Result{Delivered: true} }

// Failed builds a failed Result from a reason.
func Failed(format string, args ...interface{}) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Notifier sends one message to one recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) Result
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, to, subject, body string) Result

// Send implements Notifier.
func (f NotifierFunc) Send(ctx context.Context, to, subject, body string) Result {
	return f(ctx, to, subject, body)
}

// Guard wraps n so that a panic inside a driver becomes a failed Result.
func Guard(n Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, to, subject, body string) (res Result) {
		defer func() {
			if r := recover(); r != nil {
				res = Failed("notifier panic: %v", r)
			}
		}()
		if n == nil {
			return Failed("notifier not configured")
		}
		if strings.TrimSpace(to) == "" {
			return Failed("recipient address missing")
		}
		return n.Send(ctx, to, subject, body)
	})
}

// Router sends SNS topic ARNs and E.164 phone numbers through Topic and everything else through Email.
type Router struct {
	Email Notifier
	Topic Notifier
}

// Send implements Notifier.
func (r Router) Send(ctx context.Context, to, subject, body string) Result {
	if r.Topic != nil && (strings.HasPrefix(to, "arn:") || strings.HasPrefix(to, "+")) {
		return r.Topic.Send(ctx, to, subject, body)
	}
	if r.Email == nil {
		return Failed("no email channel for %s", to)
	}
	return r.Email.Send(ctx, to, subject, body)
}
