//go:build wireinject
// +build wireinject

package di

import (
	domrepo "SignalForge/internal/domain/repository"
	internalrepo "SignalForge/internal/repository"
	"SignalForge/pkg/config"
	"SignalForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideCache,

		// Decision recording
		ProvideRecordSink,
		ProvideHub,
		ProvideDecisionRecorder,
		wire.Bind(new(domrepo.DecisionRecorder), new(*internalrepo.BufferedRecorder)),

		// Collaborators
		ProvideNotifier,
		ProvideSentimentAnalyzer,
		ProvideFeatureStore,
		ProvideActionQueue,
		ProvideActionDispatcher,

		// Use cases
		ProvideEngine,
		ProvidePredictionService,
		ProvideSignalIntake,
		ProvideSignalActionJob,
		ProvideKafkaConsumer,
		ProvideKafkaSignalsHandler,

		// HTTP
		ProvideRateLimiter,
		ProvidePredictionHandler,
		ProvideSignalsHandler,
		ProvideStreamHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
