package app

import (
	"context"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/baristaclub/barista/internal/display"
	"github.com/baristaclub/barista/internal/events"
	"github.com/baristaclub/barista/internal/relay"
	"github.com/baristaclub/barista/internal/square"
	"github.com/baristaclub/barista/pkg"
)

const (
	AppName    = "barista"
	AppVersion = "0.1.0"
)

// App encapsulates the display service application
type App struct {
	config *aqm.Config
	logger aqm.Logger
	micro  *aqm.Micro
}

// New creates a new display service application
func New(config *aqm.Config, logger aqm.Logger) (*App, error) {
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize sets up all dependencies and components
func (a *App) Initialize(ctx context.Context) error {
	schemeRaw, _ := a.config.GetString("display.scheme")
	scheme := display.ParseScheme(schemeRaw)

	classifier := display.NewClassifier(scheme, a.logger)
	normalizer := display.NewNormalizer(classifier, a.logger)
	store := display.NewStore()
	session := display.NewSession()

	squareClient := square.NewClient(a.config, a.logger)
	poller := display.NewPoller(squareClient, normalizer, store, session, a.config, a.logger)

	lifecycles := []interface{}{poller}

	// NATS is optional: without it the display still polls, it just
	// cannot publish completions or receive refresh nudges.
	var publisher aqmevents.Publisher
	natsURL, _ := a.config.GetString("nats.url")
	if natsURL != "" {
		natsPublisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			return err
		}
		publisher = natsPublisher

		natsSubscriber, err := pkg.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}

		refreshSubscriber := events.NewRefreshSubscriber(natsSubscriber, poller, a.logger)
		lifecycles = append(lifecycles,
			refreshSubscriber,
			aqm.LifecycleHooks{
				OnStop: func(context.Context) error {
					_ = natsSubscriber.Close()
					return natsPublisher.Close()
				},
			},
		)
	} else {
		a.logger.Info("nats.url not set, event publishing and refresh nudges disabled")
	}

	coordinator := display.NewCoordinator(store, squareClient, poller, publisher, a.logger)

	displayHandler := display.NewHandler(store, coordinator, poller, session, a.logger)
	relayHandler := relay.NewHandler(a.config, a.logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: a.logger,
	})

	options := []aqm.Option{
		aqm.WithConfig(a.config),
		aqm.WithLogger(a.logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", displayHandler, relayHandler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(AppName),
	}

	a.micro = aqm.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}
