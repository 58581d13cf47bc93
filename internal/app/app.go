package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/asset"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/memstore"
	"github.com/niksmo/storefront/internal/adapter/remote"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

type sources struct {
	asset  port.SeedAsset
	remote port.RemoteSource
}

type coreService struct {
	sync      *service.ProductSync
	catalog   *service.Catalog
	cart      *service.CartService
	cartModel *service.CartModel
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	store      port.LocalStore
	sources    sources
	producer   *kafka.CheckoutProducer
	service    coreService
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initSources()
	app.initProducer()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	if app.cfg.Storage == config.StorageMemory {
		app.store = memstore.New()
		return
	}

	migrator, err := storage.NewMigrator(app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	if err := migrator.Up(app.ctx); err != nil {
		app.fallDown(op, err)
	}

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.store = storage.New(sqldb, migrator)
}

func (app *App) initSources() {
	const op = "App.initSources"

	switch app.cfg.SeedAsset {
	case "":
	case config.SeedBundled:
		app.sources.asset = asset.Bundled()
	default:
		app.sources.asset = asset.File(app.cfg.SeedAsset)
	}

	if app.cfg.Remote.URL == "" {
		return
	}
	client, err := remote.NewProductsClient(
		app.cfg.Remote.URL,
		remote.TimeoutOpt(app.cfg.Remote.Timeout),
		remote.MaxAttemptsOpt(app.cfg.Remote.MaxAttempts),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.sources.remote = client
}

func (app *App) initProducer() {
	const op = "App.initProducer"

	broker := app.cfg.Broker
	if !broker.Enabled() {
		slog.Info("broker is not configured, checkouts are not published")
		return
	}

	var clientOpts []kgo.Opt
	if broker.TLS.Enabled() {
		tlsCfg, err := adapter.MakeTLSConfig(
			broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		clientOpts = append(clientOpts, kgo.DialTLSConfig(tlsCfg))
	}

	srClient, err := sr.NewClient(sr.URLs(broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	checkoutSerde, err := schema.NewSerdeCheckoutV1(
		app.ctx,
		schema.SubjectOpt(broker.Topics.Checkouts+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewCheckoutProducer(
		kafka.ProducerClientOpt(
			app.ctx, broker.SeedBrokers, broker.Topics.Checkouts, clientOpts...,
		),
		kafka.ProducerEncoderOpt(checkoutSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.producer = &producer
}

func (app *App) initCoreService() {
	var producer port.CheckoutProducer
	if app.producer != nil {
		producer = app.producer
	}

	app.service.sync = service.NewProductSync(
		app.store, app.sources.asset, app.sources.remote,
	)
	app.service.catalog = service.NewCatalog(
		app.ctx, app.service.sync, app.store,
	)
	app.service.cart = service.NewCartService(app.store, producer)
	app.service.cartModel = service.NewCartModel(app.service.cart)
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service.catalog, app.service.catalog)
	httphandler.RegisterCart(mux, app.service.cartModel, app.service.catalog)

	handler := httphandler.LogRequests(httphandler.AllowJSON(mux))
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, handler, app.cfg.HTTPHandlerTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	const op = "App.Run"

	if err := app.service.cartModel.Start(app.ctx); err != nil {
		app.fallDown(op, err)
	}

	go func() {
		if err := app.service.catalog.Load(app.ctx, false); err != nil {
			slog.Warn("initial catalog load failed", "op", op, "err", err)
		}
	}()

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.cartModel.Close()
	app.service.catalog.Close()
	if app.producer != nil {
		app.producer.Close()
	}
	app.store.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
