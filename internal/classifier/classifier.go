// Package classifier answers whether a host is safe, unsafe or unknown
// according to the persisted allow/deny lists.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// ErrUnavailable is returned when the host lists cannot be read.
// Callers must treat the host as unknown and never escalate.
var ErrUnavailable = errors.New("host classifier unavailable")

// ListSource provides the current allow/deny lists.
type ListSource interface {
	HostLists(ctx context.Context) (model.HostLists, error)
}

// Checker classifies hosts. The engine, gate and analyzer depend on this
// interface so tests can substitute a fake.
type Checker interface {
	Check(ctx context.Context, host string) (model.HostStatus, error)
}

// Classifier classifies hosts against a ListSource.
type Classifier struct {
	lists ListSource
}

// New creates a Classifier reading lists from src.
func New(src ListSource) *Classifier {
	return &Classifier{lists: src}
}

// Check classifies host by exact or subdomain-suffix match.
// When the lists cannot be read, it returns an unknown status together with
// an error wrapping ErrUnavailable.
func (c *Classifier) Check(ctx context.Context, host string) (model.HostStatus, error) {
	host = hostname.Normalize(host)
	lists, err := c.lists.HostLists(ctx)
	if err != nil {
		return model.UnknownHostStatus(host), fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Classify(host, lists), nil
}

// Classify classifies host against lists without I/O.
func Classify(host string, lists model.HostLists) model.HostStatus {
	host = hostname.Normalize(host)
	return model.NewHostStatus(
		host,
		hostname.MatchesAny(host, lists.SafeHosts),
		hostname.MatchesAny(host, lists.UnsafeHosts),
	)
}

// StaticLists is a fixed in-memory ListSource.
type StaticLists model.HostLists

// HostLists implements ListSource.
func (s StaticLists) HostLists(context.Context) (model.HostLists, error) {
	return model.HostLists(s), nil
}
