package main

import (
	"context"
	"fmt"
	"github.com/ardanlabs/conf"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/qubic/go-tx-engine/business/domain/ledger"
	"github.com/qubic/go-tx-engine/external/csvfile"
	"github.com/qubic/go-tx-engine/external/elastic"
	"github.com/qubic/go-tx-engine/external/kafka"
	"github.com/qubic/go-tx-engine/infrastructure/store/pebbledb"
	"github.com/qubic/go-tx-engine/metrics"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const prefix = "QUBIC_TX_ENGINE"

func main() {
	if err := run(); err != nil {
		log.Fatalf("main: exited with error: %s", err.Error())
	}
}

func run() error {
	// optional, environment variables take precedence
	_ = godotenv.Load()

	var cfg struct {
		Args           conf.Args
		PublishTimeout time.Duration `conf:"default:1m"`
		Store          struct {
			Backend string `conf:"default:memory"` // memory or pebble
			Folder  string `conf:"default:store"`
		}
		Output struct {
			Precision int32 `conf:"default:4"`
		}
		Log struct {
			Level string `conf:"default:info"`
		}
		Kafka struct {
			Enabled          bool     `conf:"default:false"`
			BootstrapServers []string `conf:"default:localhost:9092"`
			AccountsTopic    string   `conf:"default:qubic-tx-engine-accounts"`
		}
		Elastic struct {
			Enabled     bool     `conf:"default:false"`
			Addresses   []string `conf:"default:https://localhost:9200"`
			Username    string   `conf:"default:qubic-ingestion"`
			Password    string   `conf:"optional,mask"`
			IndexName   string   `conf:"default:qubic-tx-engine-accounts"`
			Certificate string   `conf:"default:http_ca.crt"`
			MaxRetries  int      `conf:"default:15"`
		}
		Metrics struct {
			Namespace   string `conf:"default:qubic_tx_engine"`
			PushGateway string `conf:"optional"`
			Job         string `conf:"default:tx-engine"`
		}
	}

	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %v", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %v", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %v", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %v", err)
	}
	config := zap.NewProductionConfig()
	config.Level = level
	// this is just for sugar, to display a readable date instead of an epoch time
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("creating logger: %v", err)
	}
	defer logger.Sync()
	sLogger := logger.Sugar()

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %v", err)
	}
	sLogger.Infof("main: Config :\n%v\n", out)

	inputPath := cfg.Args.Num(0)
	if inputPath == "" {
		return errors.New("missing input file argument")
	}
	input, err := os.Open(inputPath)
	if err != nil {
		return errors.Wrap(err, "opening input file")
	}
	defer input.Close()

	reader, err := csvfile.NewReader(input)
	if err != nil {
		return errors.Wrapf(err, "reading input file [%s]", inputPath)
	}

	index, err := newTxIndex(cfg.Store.Backend, cfg.Store.Folder)
	if err != nil {
		return errors.Wrap(err, "creating transaction index")
	}
	defer index.Close()

	registry := prometheus.NewRegistry()
	processingMetrics := metrics.NewMetrics(cfg.Metrics.Namespace, registry)
	reducer := ledger.NewReducer(index, ledger.Observers{ledger.NewLogObserver(sLogger), processingMetrics})

	var sinks []ledger.Publisher

	if cfg.Kafka.Enabled {
		kafkaMetrics := kprom.NewMetrics(cfg.Metrics.Namespace,
			kprom.Registerer(registry),
			kprom.Gatherer(registry))
		kcl, err := kgo.NewClient(
			kgo.WithHooks(kafkaMetrics),
			kgo.DefaultProduceTopic(cfg.Kafka.AccountsTopic),
			kgo.SeedBrokers(cfg.Kafka.BootstrapServers...),
			kgo.ProducerBatchCompression(kgo.ZstdCompression()),
		)
		if err != nil {
			return errors.Wrap(err, "creating kafka client")
		}
		defer kcl.Close()
		sinks = append(sinks, kafka.NewClient(kcl))
	}

	if cfg.Elastic.Enabled {
		cert, err := os.ReadFile(cfg.Elastic.Certificate)
		if err != nil {
			sLogger.Warnw("main: could not read elastic certificate", "error", err)
		}
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses:     cfg.Elastic.Addresses,
			Username:      cfg.Elastic.Username,
			Password:      cfg.Elastic.Password,
			CACert:        cert,
			RetryOnStatus: []int{502, 503, 504, 429},
			MaxRetries:    cfg.Elastic.MaxRetries,
			RetryBackoff:  calculateBackoff(sLogger),
		})
		if err != nil {
			return errors.Wrap(err, "creating elasticsearch client")
		}
		sinks = append(sinks, elastic.NewClient(esClient, cfg.Elastic.IndexName, sLogger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout is written last, after all remote sinks accepted the accounts
	output := csvfile.NewWriter(os.Stdout, cfg.Output.Precision)
	proc := ledger.NewProcessor(reader, reducer, output, sinks, cfg.PublishTimeout, sLogger)
	accounts, err := proc.Run(ctx)
	if err != nil {
		return errors.Wrapf(err, "processing [%s]", inputPath)
	}
	processingMetrics.SetLedgerSummary(accounts)

	if cfg.Metrics.PushGateway != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.Metrics.PushGateway, cfg.Metrics.Job, registry); err != nil {
			sLogger.Warnw("main: could not push metrics", "error", err)
		}
	}

	return nil
}

type txIndex interface {
	ledger.TxIndex
	io.Closer
}

type memoryIndex struct {
	*ledger.MemoryIndex
}

func (memoryIndex) Close() error { return nil }

func newTxIndex(backend, folder string) (txIndex, error) {
	switch backend {
	case "memory":
		return memoryIndex{ledger.NewMemoryIndex()}, nil
	case "pebble":
		index, err := pebbledb.NewTxIndex(folder)
		if err != nil {
			return nil, err
		}
		return index, nil
	default:
		return nil, errors.Errorf("unknown store backend [%s]", backend)
	}
}

// calculateBackoff needs retry number because of multi threading
func calculateBackoff(logger *zap.SugaredLogger) func(i int) time.Duration {
	return func(i int) time.Duration {
		var d time.Duration
		if i < 10 {
			d = time.Second*time.Duration(i) + randomMillis()
		} else {
			d = time.Second*30 + randomMillis()
		}
		logger.Warnw("elasticsearch client retry", "retry", i, "backoff", d)
		return d
	}
}

func randomMillis() time.Duration {
	return time.Duration(rand.Intn(1000)) * time.Millisecond
}
