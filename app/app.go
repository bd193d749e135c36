// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package app

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/solbridge-labs/solbridge/aggregator"
	"github.com/solbridge-labs/solbridge/api"
	"github.com/solbridge-labs/solbridge/api/handlers"
	"github.com/solbridge-labs/solbridge/auth"
	"github.com/solbridge-labs/solbridge/cache"
	"github.com/solbridge-labs/solbridge/config"
	"github.com/solbridge-labs/solbridge/finality"
	"github.com/solbridge-labs/solbridge/health"
	"github.com/solbridge-labs/solbridge/jobs"
	"github.com/solbridge-labs/solbridge/metrics"
	"github.com/solbridge-labs/solbridge/policy"
	"github.com/solbridge-labs/solbridge/protocol"
	"github.com/solbridge-labs/solbridge/protocol/jupiter"
	"github.com/solbridge-labs/solbridge/protocol/lifi"
	"github.com/solbridge-labs/solbridge/protocol/rango"
	"github.com/solbridge-labs/solbridge/ratelimit"
	"github.com/solbridge-labs/solbridge/session"
)

var Version string

func Run() error {
	var err error

	configFlag := viper.GetString(config.ConfigFlagName)
	configURL := viper.GetString("config-url")

	var configuration *config.Config
	if configURL != "" {
		configuration, err = config.GetSharedConfigFromNetwork(configURL)
		panicOnError(err)
	}

	if strings.ToLower(configFlag) == "env" {
		configuration, err = config.GetConfigFromENV(configuration)
		panicOnError(err)
	} else {
		configuration, err = config.GetConfigFromFile(configFlag, configuration)
		panicOnError(err)
	}
	engineConfig := configuration.EngineConfig

	configureLogger(engineConfig.LogLevel)
	log.Info().Msg("Successfully loaded configuration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go health.StartHealthEndpoint(engineConfig.HealthPort)

	storePath := engineConfig.StorePath
	if flagPath := viper.GetString(config.StoreFlagName); flagPath != "" {
		storePath = flagPath
	}
	store, err := session.NewStore(storePath)
	panicOnError(err)
	defer store.Close()

	bridgeMetrics, err := metrics.NewBridgeMetrics(otel.GetMeterProvider().Meter("solbridge-metric-provider"))
	panicOnError(err)

	challengeCache := cache.NewChallengeCache(0)
	defer challengeCache.Stop()
	authenticator := auth.NewAuthenticator(challengeCache)

	executionPolicy := policy.New(engineConfig.DisabledChainKinds)

	registry := protocol.NewRegistry(
		lifi.NewLifiAPI(engineConfig.Providers.Lifi.Url),
		rango.NewRangoAPI(
			engineConfig.Providers.Rango.Url,
			engineConfig.Providers.Rango.ApiKey,
			engineConfig.Chains.SolanaRpc,
		),
	)
	jupiterAPI := jupiter.NewJupiterAPI(engineConfig.Providers.Jupiter.Url, engineConfig.Chains.SolanaRpc)
	composer := aggregator.NewComposer(
		jupiterAPI,
		engineConfig.ComposeDestinationSwap,
	)
	// nolint:gosec
	providerTimeout := time.Duration(engineConfig.ProviderTimeout) * time.Second
	quoteAggregator := aggregator.New(registry, composer, bridgeMetrics, providerTimeout)

	var evmVerifier *finality.EVMVerifier
	if len(engineConfig.Chains.EvmEndpoints) > 0 {
		evmVerifier, err = finality.NewEVMVerifier(engineConfig.Chains.EvmEndpoints)
		panicOnError(err)
	}
	var solanaVerifier *finality.SolanaVerifier
	if engineConfig.Chains.SolanaRpc != "" {
		solanaVerifier = finality.NewSolanaVerifier(engineConfig.Chains.SolanaRpc)
	}
	verifier := finality.NewVerifier(
		evmVerifier,
		solanaVerifier,
		finality.NewBitcoinVerifier(engineConfig.Chains.BitcoinApi),
		finality.NewCosmosVerifier(engineConfig.Chains.CosmosRest),
		finality.NewTonVerifier(engineConfig.Chains.TonApi),
	)

	manager := session.NewManager(
		store,
		registry,
		jupiterAPI,
		executionPolicy,
		authenticator,
		verifier,
		bridgeMetrics,
		providerTimeout,
	)

	// nolint:gosec
	reconcileInterval := time.Duration(engineConfig.ReconcileInterval) * time.Second
	go jobs.NewReconcileJob(manager, reconcileInterval).Run(ctx)

	limiter := ratelimit.NewLimiter(engineConfig.RateLimit.Window(), engineConfig.RateLimit.Max)
	defer limiter.Stop()

	quoteHandler := handlers.NewQuoteHandler(quoteAggregator)
	sessionHandler := handlers.NewSessionHandler(manager)
	stepHandler := handlers.NewStepHandler(manager)
	go api.Serve(ctx, engineConfig.ApiAddr, quoteHandler, sessionHandler, stepHandler, limiter)

	sysErr := make(chan os.Signal, 1)
	signal.Notify(sysErr,
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGHUP,
		syscall.SIGQUIT)

	log.Info().Msgf("Started solbridge engine. Version: v%s", Version)

	sig := <-sysErr
	log.Info().Msgf("terminating got ` [%v] signal", sig)
	return nil
}

func configureLogger(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func panicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
