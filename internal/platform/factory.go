package platform

import (
	"context"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// New builds a ready to use service.
//
//	svc, err := platform.New(ctx, "./notes", platform.WithAutoInit(true))
//
// The caller owns the service and must Close it.
func New(ctx context.Context, uri string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := initRepository(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	var svcOpts []core.ServiceOption
	if o.logger != nil {
		svcOpts = append(svcOpts, core.WithServiceLogger(o.logger))
	}
	if o.eventBuffer > 0 {
		svcOpts = append(svcOpts, core.WithEventBuffer(o.eventBuffer))
	}
	return core.NewService(repo, svcOpts...), nil
}
