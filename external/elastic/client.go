package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/pkg/errors"
	"github.com/qubic/go-tx-engine/entities"
	"go.uber.org/zap"
	"runtime"
	"strconv"
	"time"
)

type Client struct {
	esClient  *elasticsearch.Client
	indexName string
	logger    *zap.SugaredLogger
}

func NewClient(esClient *elasticsearch.Client, indexName string, logger *zap.SugaredLogger) *Client {
	return &Client{
		esClient:  esClient,
		indexName: indexName,
		logger:    logger,
	}
}

type EsDocument struct {
	Id      string
	Payload []byte
}

// PublishAccounts indexes one document per account. The client id is the
// document id so that a rerun replaces the previous state.
func (c *Client) PublishAccounts(ctx context.Context, accounts []entities.Account) error {
	documents, err := convertToDocuments(accounts)
	if err != nil {
		return err
	}
	return c.BulkIndex(ctx, documents)
}

func convertToDocuments(accounts []entities.Account) ([]*EsDocument, error) {
	documents := make([]*EsDocument, 0, len(accounts))
	for _, account := range accounts {
		val, err := json.Marshal(account.State())
		if err != nil {
			return nil, errors.Wrapf(err, "marshalling account %+v", account)
		}
		documents = append(documents, &EsDocument{
			Id:      strconv.FormatUint(uint64(account.Client), 10),
			Payload: val,
		})
	}
	return documents, nil
}

func (c *Client) BulkIndex(ctx context.Context, data []*EsDocument) error {
	start := time.Now()
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:      c.indexName,
		Client:     c.esClient,
		NumWorkers: min(runtime.NumCPU(), 8),
	})
	if err != nil {
		return errors.Wrap(err, "creating bulk indexer")
	}

	for _, d := range data {
		item := esutil.BulkIndexerItem{
			Action:     "index", // creates or replaces
			DocumentID: d.Id,
			Body:       bytes.NewReader(d.Payload),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					c.logger.Errorw("Error indexing document", "id", d.Id, "payload", string(d.Payload), "error", err)
				} else {
					c.logger.Errorw("Error indexing document", "id", d.Id, "payload", string(d.Payload),
						"type", res.Error.Type, "reason", res.Error.Reason)
				}
			},
		}
		err = bi.Add(ctx, item)
		if err != nil {
			_ = bi.Close(ctx)
			return errors.Wrapf(err, "adding document [%s]", d.Id)
		}
	}

	err = bi.Close(ctx)
	if err != nil {
		return errors.Wrap(err, "closing bulk indexer")
	}

	biStats := bi.Stats()
	if biStats.NumFailed > 0 {
		return errors.Errorf("%d errors indexing [%d] documents", biStats.NumFailed, len(data))
	}
	c.logger.Infow("Indexed documents", "nr_documents", biStats.NumFlushed, "bytes", biStats.FlushedBytes,
		"requests", biStats.NumRequests, "duration", time.Since(start))
	return nil
}
