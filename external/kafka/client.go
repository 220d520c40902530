package kafka

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"github.com/qubic/go-tx-engine/entities"
	"github.com/twmb/franz-go/pkg/kgo"
	"sync"
)

type KafkaClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Client publishes account snapshots, one record per account keyed by client.
type Client struct {
	kcl KafkaClient
}

func NewClient(kafkaClient KafkaClient) *Client {
	return &Client{
		kcl: kafkaClient,
	}
}

func (kc *Client) PublishAccounts(ctx context.Context, accounts []entities.Account) error {
	records := make([]*kgo.Record, 0, len(accounts))
	for _, account := range accounts {
		record, err := createAccountRecord(account)
		if err != nil {
			return errors.Wrapf(err, "creating record for account [%d]", account.Client)
		}
		records = append(records, record)
	}

	var wg sync.WaitGroup
	var mutex sync.Mutex
	var failed int
	var firstErr error

	for _, record := range records {
		wg.Add(1)
		kc.kcl.Produce(ctx, record, func(_ *kgo.Record, err error) {
			defer wg.Done()
			if err != nil {
				mutex.Lock()
				defer mutex.Unlock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
			}
		})
	}

	wg.Wait()

	if failed > 0 {
		return errors.Wrapf(firstErr, "producing [%d] of [%d] account records failed", failed, len(records))
	}
	return nil
}

func createAccountRecord(account entities.Account) (*kgo.Record, error) {
	payload, err := json.Marshal(account.State())
	if err != nil {
		return nil, fmt.Errorf("marshalling account to json: %w", err)
	}
	key := make([]byte, 2)
	binary.LittleEndian.PutUint16(key, uint16(account.Client))

	return &kgo.Record{
		Key:   key,
		Value: payload,
	}, nil
}
