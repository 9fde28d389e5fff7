package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/yungbote/neurobridge-lessons/internal/data/db"
	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
	"github.com/yungbote/neurobridge-lessons/internal/realtime/bus"
)

// Store is the storage gateway plus whatever must be closed with it.
type Store struct {
	Gateway kv.Gateway
	close   func() error
}

func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

func openStore(ctx context.Context, log *logger.Logger, cfg StoreConfig) (*Store, error) {
	opts := kv.Options{Timeout: cfg.Timeout}
	switch cfg.Driver {
	case DriverDynamo:
		log.Info("Opening DynamoDB store", "table", cfg.DynamoTable, "region", cfg.AWSRegion)
		loadOpts := []func(*awsconfig.LoadOptions) error{}
		if r := strings.TrimSpace(cfg.AWSRegion); r != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(r))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if ep := strings.TrimSpace(cfg.DynamoEndpoint); ep != "" {
				o.BaseEndpoint = aws.String(ep)
			}
		})
		gw, err := kv.NewDynamoGateway(client, cfg.DynamoTable, log, opts)
		if err != nil {
			return nil, err
		}
		return &Store{Gateway: gw}, nil
	default:
		log.Info("Opening SQL store", "driver", cfg.Driver)
		svc, err := db.NewService(log, cfg.DBOptions())
		if err != nil {
			return nil, fmt.Errorf("init %s: %w", cfg.Driver, err)
		}
		return &Store{Gateway: kv.NewGormGateway(svc.DB(), log, opts), close: svc.Close}, nil
	}
}

// openBus falls back to the no-op bus without REDIS_ADDR.
func openBus(ctx context.Context, log *logger.Logger, cfg RedisConfig) (bus.Bus, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		log.Info("REDIS_ADDR not set; chat queue notifications disabled")
		return bus.NewNoopBus(), nil
	}
	rdb, err := bus.DialRedis(ctx, cfg.Addr)
	if err != nil {
		return nil, err
	}
	return bus.NewRedisBus(log, rdb, cfg.ChatChannel)
}
