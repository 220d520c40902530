package ledger

import (
	"context"
	"github.com/pkg/errors"
	"github.com/qubic/go-tx-engine/entities"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"io"
	"time"
)

// RecordSource yields records in input order and io.EOF after the last one.
type RecordSource interface {
	Next() (entities.Record, error)
}

type Publisher interface {
	PublishAccounts(ctx context.Context, accounts []entities.Account) error
}

type Processor struct {
	source         RecordSource
	reducer        *Reducer
	output         Publisher
	sinks          []Publisher
	publishTimeout time.Duration
	logger         *zap.SugaredLogger
}

// NewProcessor creates a processor that publishes to the sinks first and to
// the output only once every sink succeeded. The output may be nil.
func NewProcessor(
	source RecordSource,
	reducer *Reducer,
	output Publisher,
	sinks []Publisher,
	publishTimeout time.Duration,
	logger *zap.SugaredLogger,
) *Processor {
	return &Processor{
		source:         source,
		reducer:        reducer,
		output:         output,
		sinks:          sinks,
		publishTimeout: publishTimeout,
		logger:         logger,
	}
}

// Run applies every record of the source and publishes the resulting accounts.
// Nothing is published if any record fails.
func (p *Processor) Run(ctx context.Context) ([]entities.Account, error) {
	count, err := p.applyAll(ctx)
	if err != nil {
		return nil, err
	}

	accounts := p.reducer.Snapshot()
	openDisputes, err := p.reducer.OpenDisputes()
	if err != nil {
		return nil, err
	}
	p.logger.Infow("Processed records", "nr_records", count, "nr_accounts", len(accounts), "nr_open_disputes", len(openDisputes))
	if len(openDisputes) > 0 {
		p.logger.Debugw("Open disputes", "txs", openDisputes)
	}

	err = p.publishToSinks(ctx, accounts)
	if err != nil {
		return nil, errors.Wrap(err, "publishing accounts")
	}

	if p.output != nil {
		err = p.output.PublishAccounts(ctx, accounts)
		if err != nil {
			return nil, errors.Wrap(err, "writing accounts")
		}
	}
	return accounts, nil
}

func (p *Processor) applyAll(ctx context.Context) (int, error) {
	var count int
	for {
		if err := ctx.Err(); err != nil {
			return count, errors.Wrap(err, "processing interrupted")
		}

		record, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, errors.Wrapf(err, "reading record [%d]", count+1)
		}

		err = p.reducer.Apply(record)
		if err != nil {
			p.logger.Errorw("Aborting batch", "type", record.Type, "client", record.Client, "tx", record.Tx, "error", err)
			return count, err
		}
		count++
	}
}

func (p *Processor) publishToSinks(ctx context.Context, accounts []entities.Account) error {
	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range p.sinks {
		g.Go(func() error {
			return sink.PublishAccounts(ctx, accounts)
		})
	}
	return g.Wait()
}
