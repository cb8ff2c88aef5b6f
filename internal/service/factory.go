package service

import (
	"log/slog"

	"archieos.app/intake/core/config"
	"archieos.app/intake/internal/store"
)

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	slackCfg config.SlackConfig
	logger   *slog.Logger
}

func NewServices(stores *store.Stores, txRunner TxRunner, slackCfg config.SlackConfig, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		stores:   stores,
		txRunner: txRunner,
		slackCfg: slackCfg,
		logger:   logger,
	}
}

func (s *Services) Verifier() SignatureVerifier {
	return NewSignatureVerifier(s.slackCfg.SigningSecret, s.slackCfg.BypassVerify)
}

func (s *Services) Deduplicator() Deduplicator {
	return NewDeduplicator(s.stores.IntakeEvents(), s.logger)
}

func (s *Services) Users() UserResolver {
	return NewUserResolver(s.stores.Realtors(), s.logger)
}

func (s *Services) TxRunner() TxRunner {
	return s.txRunner
}
