package tests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/walletera/eventstore-tables/internal/app"
	"github.com/walletera/eventstore-tables/internal/domain/dispatch"
	"github.com/walletera/eventstore-tables/internal/domain/eventstore"

	"github.com/cucumber/godog"
	"github.com/walletera/eventskit/rabbitmq"
	slogwatcher "github.com/walletera/logs-watcher/slog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

const (
	appKey                    = "app"
	appCtxCancelFuncKey       = "appCtxCancelFuncKey"
	logsWatcherKey            = "logsWatcher"
	appendedBatchKey          = "appendedBatch"
	appendErrKey              = "appendErr"
	logsWatcherWaitForTimeout = 5 * time.Second
	dispatchPollInterval      = 100 * time.Millisecond
	testAccount               = "eventstore_it"
	mongodbURL                = "mongodb://localhost:27017/?directConnection=true"
	eventType                 = "account.credited"
)

var mongodbClient *mongo.Client

func beforeScenarioHook(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
	handler, err := newZapHandler()
	if err != nil {
		return ctx, err
	}
	logsWatcher := slogwatcher.NewWatcher(handler)
	ctx = context.WithValue(ctx, logsWatcherKey, logsWatcher)

	client, err := getMongodbClient()
	if err != nil {
		return ctx, err
	}

	// cleanup database before each scenario
	err = client.Database(testAccount).Drop(ctx)
	if err != nil {
		return nil, err
	}

	return ctx, nil
}

func afterScenarioHook(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
	logsWatcher := logsWatcherFromCtx(ctx)

	appCtxCancelFuncFromCtx(ctx)()
	appFromCtx(ctx).Stop(ctx)
	foundLogEntry := logsWatcher.WaitFor("eventstore-tables stopped", logsWatcherWaitForTimeout)
	if !foundLogEntry {
		return ctx, fmt.Errorf("app termination failed (didn't find expected log entry)")
	}

	err = logsWatcher.Stop()
	if err != nil {
		return ctx, fmt.Errorf("failed stopping the logsWatcher: %w", err)
	}

	return ctx, nil
}

func aRunningEventstoreTables(ctx context.Context) (context.Context, error) {
	logHandler := logsWatcherFromCtx(ctx).DecoratedHandler()

	appCtx, appCtxCancelFunc := context.WithCancel(context.Background())

	eventstoreApp, err := app.NewApp(
		app.WithBackend(app.BackendMongoDB),
		app.WithStoreOptions(
			eventstore.WithTableHost(mongodbURL),
			eventstore.WithAccount(testAccount),
			eventstore.WithTimeout(5*time.Second),
		),
		app.WithRabbitmqHost(rabbitmq.DefaultHost),
		app.WithRabbitmqPort(rabbitmq.DefaultPort),
		app.WithRabbitmqUser(rabbitmq.DefaultUser),
		app.WithRabbitmqPassword(rabbitmq.DefaultPassword),
		app.WithDispatchPollInterval(dispatchPollInterval),
		app.WithLogHandler(logHandler),
	)
	if err != nil {
		appCtxCancelFunc()
		return ctx, fmt.Errorf("failed initializing eventstore app: %w", err)
	}

	err = eventstoreApp.Run(appCtx)
	if err != nil {
		appCtxCancelFunc()
		return ctx, fmt.Errorf("failed running eventstore app: %w", err)
	}

	ctx = context.WithValue(ctx, appKey, eventstoreApp)
	ctx = context.WithValue(ctx, appCtxCancelFuncKey, appCtxCancelFunc)

	foundLogEntry := logsWatcherFromCtx(ctx).WaitFor("eventstore-tables started", logsWatcherWaitForTimeout)
	if !foundLogEntry {
		return ctx, fmt.Errorf("eventstore app startup failed (didn't find expected log entry)")
	}

	return ctx, nil
}

func aBatchOfEventsIsAppendedToStream(ctx context.Context, count int, streamID string) (context.Context, error) {
	store := appFromCtx(ctx).Store()
	batch := make([]eventstore.Event, 0, count)
	for revision := 0; revision < count; revision++ {
		stamp := time.Now()
		batch = append(batch, eventstore.Event{
			StreamID:       streamID,
			StreamRevision: int64(revision),
			CommitID:       store.NewID(),
			CommitSequence: int64(revision),
			CommitStamp:    &stamp,
			Header:         json.RawMessage(fmt.Sprintf(`{%q:%q}`, dispatch.HeaderEventType, eventType)),
			Payload:        json.RawMessage(fmt.Sprintf(`{"amount":%d}`, revision*10)),
		})
	}
	err := store.Append(ctx, batch)
	if err != nil {
		return ctx, fmt.Errorf("failed appending events: %w", err)
	}
	return context.WithValue(ctx, appendedBatchKey, batch), nil
}

func theEventstoreTablesProducesTheFollowingLog(ctx context.Context, logMsg *godog.DocString) error {
	logsWatcher := logsWatcherFromCtx(ctx)
	foundLogEntry := logsWatcher.WaitFor(logMsg.Content, logsWatcherWaitForTimeout)
	if !foundLogEntry {
		return fmt.Errorf("didn't find expected log entry: %s", logMsg.Content)
	}
	return nil
}

func logsWatcherFromCtx(ctx context.Context) *slogwatcher.Watcher {
	value := ctx.Value(logsWatcherKey)
	if value == nil {
		panic("logs watcher not found in context")
	}
	watcher, ok := value.(*slogwatcher.Watcher)
	if !ok {
		panic("logs watcher has invalid type")
	}
	return watcher
}

func appFromCtx(ctx context.Context) *app.App {
	value := ctx.Value(appKey)
	if value == nil {
		panic("eventstore app not found in context")
	}
	eventstoreApp, ok := value.(*app.App)
	if !ok {
		panic("eventstore app has invalid type")
	}
	return eventstoreApp
}

func appCtxCancelFuncFromCtx(ctx context.Context) context.CancelFunc {
	value := ctx.Value(appCtxCancelFuncKey)
	if value == nil {
		panic("app ctx cancel func not found in context")
	}
	cancelFunc, ok := value.(context.CancelFunc)
	if !ok {
		panic("app ctx cancel func has invalid type")
	}
	return cancelFunc
}

func appendedBatchFromCtx(ctx context.Context) ([]eventstore.Event, error) {
	batch, ok := ctx.Value(appendedBatchKey).([]eventstore.Event)
	if !ok {
		return nil, errors.New("no batch was appended in this scenario")
	}
	return batch, nil
}

func newZapHandler() (slog.Handler, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(zap.DebugLevel),
		Development:       false,
		DisableStacktrace: true,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	if zapLogger.Core() == nil {
		return nil, fmt.Errorf("zapLogger.Core() is nil")
	}
	return zapslog.NewHandler(zapLogger.Core()), nil
}

func getMongodbClient() (*mongo.Client, error) {
	if mongodbClient != nil {
		return mongodbClient, nil
	}

	// Use the SetServerAPIOptions() method to set the Stable API version to 1
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(mongodbURL).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	mongodbClient = client

	return mongodbClient, nil
}
