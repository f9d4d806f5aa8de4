// Package bootstrap builds the relay object graph shared by the HTTP server
// and the Lambda entry point.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"advisor-chat/internal/config"
	"advisor-chat/internal/integrations/gemini"
	"advisor-chat/internal/integrations/paramstore"
	"advisor-chat/internal/repository"
	"advisor-chat/internal/usecase"
)

// apiKeyParameter is the leaf name under PARAM_PREFIX holding the provider key.
const apiKeyParameter = "gemini-api-key"

var loadAWSConfig = func(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// awsLoader loads the AWS config at most once.
type awsLoader struct {
	cfg    aws.Config
	loaded bool
}

func (l *awsLoader) get(ctx context.Context) (aws.Config, error) {
	if l.loaded {
		return l.cfg, nil
	}
	cfg, err := loadAWSConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	l.cfg, l.loaded = cfg, true
	return cfg, nil
}

// RelayService builds the relay use case from cfg. AWS is only contacted for
// configuration when PARAM_PREFIX or EXCHANGE_TABLE is set. A missing API key
// is not an error here; every relay call fails at the provider step instead.
func RelayService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*usecase.RelayService, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var loader awsLoader

	keys, err := keySource(ctx, cfg, &loader)
	if err != nil {
		return nil, err
	}

	var opts []gemini.Option
	if cfg.GeminiBaseURL != "" {
		opts = append(opts, gemini.WithBaseURL(cfg.GeminiBaseURL))
	}
	if cfg.ProviderTimeout > 0 {
		opts = append(opts, gemini.WithTimeout(cfg.ProviderTimeout))
	}
	llm, err := gemini.NewClient(keys, opts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create gemini client: %w", err)
	}

	var recorder usecase.ExchangeRecorder
	if cfg.ExchangeTable != "" {
		repo, err := exchangeLog(ctx, cfg, &loader)
		if err != nil {
			return nil, err
		}
		recorder = repo
		logger.Info("exchange log enabled", "table", cfg.ExchangeTable)
	}

	svc, err := usecase.NewRelayService(llm, recorder, cfg.GeminiModel, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create relay service: %w", err)
	}
	return svc, nil
}

// ExchangeLog opens the DynamoDB exchange log named by EXCHANGE_TABLE.
func ExchangeLog(ctx context.Context, cfg *config.Config) (*repository.Client, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config must not be nil")
	}
	if cfg.ExchangeTable == "" {
		return nil, errors.New("bootstrap: EXCHANGE_TABLE is not set")
	}
	return exchangeLog(ctx, cfg, &awsLoader{})
}

func exchangeLog(ctx context.Context, cfg *config.Config, loader *awsLoader) (*repository.Client, error) {
	awsCfg, err := loader.get(ctx)
	if err != nil {
		return nil, err
	}
	repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.ExchangeTable)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create exchange log: %w", err)
	}
	return repo, nil
}

func keySource(ctx context.Context, cfg *config.Config, loader *awsLoader) (gemini.KeySource, error) {
	if !cfg.UsesParamStore() {
		return gemini.StaticKey(cfg.GeminiAPIKey), nil
	}
	awsCfg, err := loader.get(ctx)
	if err != nil {
		return nil, err
	}
	store, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create ssm client: %w", err)
	}
	key, err := paramstore.NewSecretKey(store, cfg.ParamPrefix, apiKeyParameter)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: api key source: %w", err)
	}
	return key, nil
}
