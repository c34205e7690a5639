package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/okieraised/fatigue-agent/internal/config"
	"github.com/okieraised/fatigue-agent/internal/constants"
	"github.com/okieraised/fatigue-agent/internal/detection/history"
	"github.com/okieraised/fatigue-agent/internal/detection/profile"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/local_cache"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/log"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/mqtt_client"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/s3_client"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/tracer_client"
	"github.com/okieraised/fatigue-agent/internal/pipeline"
	"github.com/okieraised/fatigue-agent/internal/server/monitoring"
	"github.com/okieraised/fatigue-agent/internal/server/rest_server"
	"github.com/okieraised/fatigue-agent/internal/server/rest_server/routers"
	"github.com/okieraised/fatigue-agent/internal/server/rest_server/services/v1/restful"
	"github.com/okieraised/fatigue-agent/internal/server/rest_server/services/v1/ws"
	"github.com/okieraised/fatigue-agent/internal/sink"
	"github.com/okieraised/fatigue-agent/internal/telemetry"
	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"github.com/okieraised/fatigue-agent/internal/vision/quality"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var once sync.Once

func mirrorEnvCase() {
	for _, kv := range os.Environ() {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		k, v := kv[:i], kv[i+1:]
		_ = os.Setenv(strings.ToUpper(k), v)
		_ = os.Setenv(strings.ToLower(k), v)
	}
}

func loadDotenvIfExists(filename string, overload bool) (bool, error) {
	if _, err := os.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if overload {
		return true, godotenv.Overload(filename)
	}
	return true, godotenv.Load(filename)
}

func readConfigIfExists(path string, merge bool) (bool, error) {
	viper.SetConfigFile(path)
	var err error
	if merge {
		err = viper.MergeInConfig()
	} else {
		err = viper.ReadInConfig()
	}
	if err == nil {
		return true, nil
	}
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) || os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func detectProfile() string {
	from := func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return strings.ToLower(v), true
		}
		if v, ok := os.LookupEnv(strings.ToUpper(k)); ok {
			return strings.ToLower(v), true
		}
		if v, ok := os.LookupEnv(strings.ToLower(k)); ok {
			return strings.ToLower(v), true
		}
		return "", false
	}
	if v, ok := from("APP_ENV"); ok {
		return v
	}
	return "dev"
}

func Load() error {
	envFound, err := loadDotenvIfExists(".env", false)
	if err != nil {
		return err
	}
	if envFound {
		mirrorEnvCase()
	}
	profile := detectProfile()

	if pfFound, err := func() (bool, error) {
		found, e := loadDotenvIfExists("."+profile+".env", true)
		if found {
			mirrorEnvCase()
		}
		return found, e
	}(); err != nil {
		return err
	} else if pfFound {
	}

	cfgFound, err := readConfigIfExists("conf/config.toml", false)
	if err != nil {
		return err
	}

	if !envFound && !cfgFound {
		return fmt.Errorf("no configuration sources found: missing both .env and conf/config.toml")
	}

	if _, err := readConfigIfExists("conf/"+profile+".config.toml", true); err != nil {
		return err
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	return nil
}

func init() {
	once.Do(func() {
		err := Load()
		if err != nil {
			panic(fmt.Sprintf("Failed to setup service configuration: %v", err))
		}

		// Init default logger
		err = log.InitDefault()
		if err != nil {
			panic(err)
		}

		// Initialize websocket telemetry hub
		telemetryHub := telemetry.NewHub()
		telemetryHub.Run(context.Background())

		if viper.GetBool(config.AgentEnableS3) {
			log.Default().Info("Started initializing client connection to external S3 storage")
			err = s3_client.NewS3Client(
				context.Background(),
				s3_client.WithRegion(viper.GetString(config.S3Region)),
				s3_client.WithEndpoint(viper.GetString(config.S3Endpoint), viper.GetBool(config.S3UsePathStyle)),
				s3_client.WithStaticCredentials(viper.GetString(config.S3AccessKey), viper.GetString(config.S3SecretKey), ""),
				s3_client.WithRetry(5, 30*time.Second),
				s3_client.WithHTTPClient(
					&http.Client{
						Transport: &http.Transport{
							TLSClientConfig: &tls.Config{
								InsecureSkipVerify: viper.GetBool(config.S3TLSInsecureSkipVerify),
							},
						},
					},
				),
			)
			if err != nil {
				log.Default().Fatal(fmt.Sprintf("Failed to initialize client connection to external S3 storage: %v", err))
			}
			log.Default().Info("Finished initializing client connection to external S3 storage")
		}

		// Initialize MQTT client if enabled
		if viper.GetBool(config.AgentEnableMQTT) {
			log.Default().Info("Started initializing client connection to MQTT broker")
			err = mqtt_client.NewMQTTClient(
				viper.GetString(config.MqttEndpoint),
				viper.GetString(config.MqttClientId),
				mqtt_client.WithAutoReconnect(viper.GetBool(config.MqttAutoReconnect)),
				mqtt_client.WithConnectTimeout(5*time.Second),
				mqtt_client.WithTLSInsecureSkipVerify(viper.GetBool(config.MqttTLSInsecureSkipVerify)),
			)
			if err != nil {
				log.Default().Fatal(fmt.Sprintf("Failed to initialize client connection to MQTT broker: %v", err))
			}
			log.Default().Info("Finished initializing client connection to MQTT broker")
		}

		// Initialize OTEL tracer if enabled
		if viper.GetBool(config.AgentEnableTracing) {
			log.Default().Info("Started initializing OTEL tracer")
			_, err = tracer_client.NewTracerClient()
			if err != nil {
				log.Default().Fatal(fmt.Sprintf("Failed to initialize OTEL tracer: %v", err))
			}
			log.Default().Info("Finished initializing OTEL tracer")
		}

		// Initialize local cache
		log.Default().Info("Started initializing local cache")
		err = local_cache.NewLocalCache()
		if err != nil {
			log.Default().Fatal(fmt.Sprintf("Failed to initialize local cache: %v", err))
		}
		log.Default().Info("Finished initializing local cache")
		log.Default().Info("Finished initializing connection to external services")
	})
}

func cameraDevice() string {
	if dev := viper.GetString(config.CameraDevice); dev != "" {
		return dev
	}
	return constants.CameraDefaultDevice
}

func cameraDimensions() (int, int) {
	width := viper.GetInt(config.CameraWidth)
	if width <= 0 {
		width = constants.CameraDefaultWidth
	}
	height := viper.GetInt(config.CameraHeight)
	if height <= 0 {
		height = constants.CameraDefaultHeight
	}
	return width, height
}

func providerEndpoint() string {
	if ep := viper.GetString(config.ProviderEndpoint); ep != "" {
		return ep
	}
	return constants.ProviderDefaultEndpoint
}

func providerTimeouts() (time.Duration, time.Duration) {
	handshake := viper.GetDuration(config.ProviderHandshakeTimeout)
	if handshake <= 0 {
		handshake = constants.ProviderDefaultHandshakeTimeout
	}
	detect := viper.GetDuration(config.ProviderDetectTimeout)
	if detect <= 0 {
		detect = constants.ProviderDefaultDetectTimeout
	}
	return handshake, detect
}

func main() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	// Resolve the detection profile
	prof, err := profile.Load()
	if err != nil {
		log.Default().Fatal(fmt.Sprintf("Failed to load detection profile: %v", err))
		return
	}
	log.Default().Info(fmt.Sprintf("Loaded detection profile [%s]", prof.Name))

	// Open the frame source
	width, height := cameraDimensions()
	source, err := pipeline.NewRawSource(cameraDevice(), width, height)
	if err != nil {
		log.Default().Fatal(fmt.Sprintf("Failed to open frame source: %v", err))
		return
	}
	defer func() {
		cErr := source.Close()
		if cErr != nil && err == nil {
			err = cErr
		}
	}()

	// Connect the landmark provider lazily; the first Detect dials.
	handshakeTimeout, detectTimeout := providerTimeouts()
	provider := landmark.NewRemoteProvider(providerEndpoint(), handshakeTimeout, detectTimeout)
	defer func() {
		cErr := provider.Close()
		if cErr != nil && err == nil {
			err = cErr
		}
	}()

	// Assemble the sinks and the pipeline
	historyStore := history.NewStore(0)
	gate := quality.NewGate(quality.ThresholdsFromViper())

	pipe := pipeline.New(
		pipeline.ConfigFromViper(),
		prof,
		source,
		provider,
		gate,
		nil, // sink attached below, it needs the session ID
	)

	sinks := []pipeline.Sink{
		sink.NewLogSink(),
		sink.NewHistorySink(historyStore),
		sink.NewHubSink(telemetry.GetHubInstance(), viper.GetString(config.AgentID), pipe.SessionID()),
	}
	if viper.GetBool(config.AgentEnableMQTT) {
		sinks = append(sinks, sink.NewMQTTSink(mqtt_client.Client()))
	}
	if viper.GetBool(config.AgentEnableS3) {
		sinks = append(sinks, sink.NewSnapshotSink(s3_client.Client(), viper.GetString(config.S3SnapshotBucket), pipe.SessionID()))
	}
	pipe.SetSink(sink.NewMulti(sinks...))

	parentCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(parentCtx)

	// Detection pipeline
	g.Go(func() error {
		pErr := pipe.Run(ctx)
		if pErr != nil {
			return pErr
		}
		return ctx.Err()
	})

	// Init profiling
	g.Go(func() error {
		if viper.GetBool(config.AgentEnableMonitoring) {
			mErr := monitoring.NewMonitoringServer(ctx)
			if mErr != nil {
				return mErr
			}
		}

		return ctx.Err()
	})

	// Init HTTP server
	g.Go(func() error {
		// app state
		appState := routers.NewAppState()

		// v1 restful svc
		v1RestState := routers.NewV1RestState()
		v1RestState.SetSessionService(
			restful.NewSessionService(
				restful.WithPipeline(pipe),
				restful.WithHistoryStore(historyStore),
				restful.WithProfile(prof),
			),
		)
		v1RestState.SetHealthcheckService(
			restful.NewHealthcheckService(),
		)
		appState.SetV1RestState(v1RestState)

		websocketState := routers.NewWebsocketState()
		websocketState.SetWebsocketService(
			ws.NewWebsocketService(
				ws.WithTelemetryHub(telemetry.GetHubInstance()),
			),
		)
		appState.SetWebsocketState(websocketState)

		rErr := rest_server.NewHTTPServer(ctx, routers.NewRootRouter(appState).InitRouters)
		if rErr != nil {
			return rErr
		}
		return ctx.Err()
	})

	select {
	case sig := <-sigCh:
		log.Default().Debug(fmt.Sprintf("Signal received: %v", sig))
		cancel()

		done := make(chan error, 1)
		go func() {
			done <- g.Wait()
		}()

		select {
		case err = <-done:
			log.Default().Info("All tasks exited, shutting down agent")
			return
		case sig2 := <-sigCh:
			log.Default().Debug(fmt.Sprintf("Second signal received: %v", sig2))
			return
		case <-time.After(constants.GraceWaitPeriod):
			log.Default().Info("Grace period timed out, forcing exit")
			return
		}

	case err = <-func() chan error {
		ch := make(chan error, 1)
		go func() {
			ch <- g.Wait()
		}()
		return ch
	}():
		log.Default().Info(fmt.Sprintf("Services finished early with error: %v", err))
	}
}
