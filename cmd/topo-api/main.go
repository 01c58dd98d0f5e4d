package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/discovery"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/eventbus"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/inventory"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/metrics"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/service"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/transport"
)

const (
	cfgFileType = "yaml"
)

// version is overridden at link time.
var version = "devel"

var (
	cfgFile string
	logger  *slog.Logger
	inv     *inventory.Store
	nsq     eventbus.NSQClient
)

var rootCmd = &cobra.Command{
	Use:     "topo-api",
	Short:   "an api to discover the network topology",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
		initInventory()
		initEventBus()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed executing root command", "error", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "alternative path to config file")
	rootCmd.Flags().StringP("log-level", "", "info", "the application log level")

	rootCmd.Flags().StringP("bind-addr", "", "0.0.0.0", "the bind addr of the api server")
	rootCmd.Flags().IntP("port", "", 8080, "the port to serve on")

	rootCmd.Flags().StringP("openflow-addr", "", ":6653", "the address the southbound server listens on for switches")
	rootCmd.Flags().IntP("discovery-interval", "", 3, "the link probing interval in seconds")
	rootCmd.Flags().IntP("echo-interval", "", 10, "the keepalive period for switch connections in seconds")

	rootCmd.Flags().StringP("nsqd-addr", "", "nsqd:4150", "the address of the nsqd")
	rootCmd.Flags().StringP("nsqd-http-addr", "", "nsqd:4151", "the address of the nsqd rest endpoint")

	viper.BindPFlags(rootCmd.Flags())
}

func initConfig() {
	viper.SetEnvPrefix("TOPO_API")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigType(cfgFileType)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			slog.Error("config file path set explicitly, but unreadable", "error", err)
			os.Exit(1)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("/etc/topo-api")
		viper.AddConfigPath("$HOME/.topo-api")
		viper.AddConfigPath(".")
		if err := viper.ReadInConfig(); err != nil {
			usedCfg := viper.ConfigFileUsed()
			if usedCfg != "" {
				slog.Error("config file unreadable", "config-file", usedCfg, "error", err)
				os.Exit(1)
			}
		}
	}

	if usedCfg := viper.ConfigFileUsed(); usedCfg != "" {
		slog.Info("read config file", "config-file", usedCfg)
	}
}

func initLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		slog.Error("unparsable log level", "log-level", viper.GetString("log-level"))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With("app", "topo-api")
	slog.SetDefault(logger)
}

func initSignalHandlers() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
}

func initInventory() {
	inv = inventory.New(logger.With("component", "inventory"))
}

func initEventBus() {
	nsq = eventbus.NewNSQ(logger.With("component", "eventbus"), viper.GetString("nsqd-addr"), viper.GetString("nsqd-http-addr"), eventbus.NewPublisher)
	nsq.WaitForPublisher()
	nsq.WaitForTopicsCreated()
}

func initRestServices(server *transport.Server, prober *discovery.Prober) {
	restful.DefaultContainer.Add(service.NewSwitch(logger.With("component", "rest"), inv))
	restful.DefaultContainer.Add(service.NewDiscovery(logger.With("component", "rest"), prober))
	restful.DefaultContainer.Add(service.NewHealth(logger.With("component", "rest"), func() error {
		if server.Addr() == nil {
			return errors.New("southbound endpoint is not listening")
		}
		return nil
	}))
	restful.DefaultContainer.Filter(service.RequestLogger(logger.With("component", "rest")))
	restful.DefaultContainer.Filter(metrics.RestfulMetrics)

	config := restfulspec.Config{
		WebServices:                   restful.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}
	restful.DefaultContainer.Add(restfulspec.NewOpenAPIService(config))

	// enable CORS for the UI to work.
	cors := restful.CrossOriginResourceSharing{
		AllowedHeaders: []string{"Content-Type", "Accept"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		CookiesAllowed: false,
		Container:      restful.DefaultContainer,
	}
	restful.DefaultContainer.Filter(cors.Filter)

	http.Handle("/metrics", promhttp.Handler())
}

func run() error {
	ctx, stop := initSignalHandlers()
	defer stop()

	server := transport.NewServer(&transport.ServerConfig{
		Logger:       logger.With("component", "southbound"),
		Inventory:    inv,
		Publisher:    nsq.Publisher,
		BindAddress:  viper.GetString("openflow-addr"),
		EchoInterval: time.Duration(viper.GetInt("echo-interval")) * time.Second,
	})

	interval := time.Duration(viper.GetInt("discovery-interval")) * time.Second
	prober := discovery.NewProber(logger.With("component", "prober"), inv, server, interval)

	correlator := discovery.NewCorrelator(logger.With("component", "correlator"), inv, nsq.Publisher)
	server.RegisterPacketInHandler(correlator.Handle)

	initRestServices(server, prober)

	addr := fmt.Sprintf("%s:%d", viper.GetString("bind-addr"), viper.GetInt("port"))
	restServer := &http.Server{Addr: addr}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx)
	})
	g.Go(func() error {
		prober.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("start topo api", "version", version, "address", addr)
		if err := restServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return restServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	nsq.Publisher.Stop()
	return err
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "topo-api",
			Description: "Resource for the discovered network topology",
			License: &spec.License{
				LicenseProps: spec.LicenseProps{
					Name: "MIT",
					URL:  "http://mit.org",
				},
			},
			Version: "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{
			Name:        "switch",
			Description: "Inspecting the switch inventory"}},
		{TagProps: spec.TagProps{
			Name:        "discovery",
			Description: "Controlling link discovery"}},
		{TagProps: spec.TagProps{
			Name:        "health",
			Description: "Healthcheck"}},
	}
}
