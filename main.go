package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"google.golang.org/grpc"

	"github.com/beka-birhanu/vinom-relay-server/api"
	"github.com/beka-birhanu/vinom-relay-server/config"
	"github.com/beka-birhanu/vinom-relay-server/feed"
	"github.com/beka-birhanu/vinom-relay-server/service"
	"github.com/beka-birhanu/vinom-relay-server/socket"
)

// Global variables for dependencies
var (
	cfg              config.Config
	grpcConnListener net.Listener
	grpcServer       *grpc.Server
	udpSocket        *socket.Socket
	relay            *service.Relay
	eventHub         *feed.Hub
	feedServer       *http.Server
	appLogger        general_i.Logger
)

func mustLogger(l general_i.Logger, err error) general_i.Logger {
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating component logger: %v", err))
		os.Exit(1)
	}
	return l
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		appLogger.Error(fmt.Sprintf("Loading configuration: %v", err))
		os.Exit(1)
	}
	if cfg.Level == 0 {
		cfg.Level, err = config.PromptLevel(os.Stdin, os.Stdout)
		if err != nil {
			appLogger.Error(fmt.Sprintf("Reading game level: %v", err))
			os.Exit(1)
		}
	}
	appLogger.Info(fmt.Sprintf("Starting server at level %d", cfg.Level))
}

func initUDPSocket() {
	host := cfg.HostIP
	if host == "" {
		host = localIP()
	}
	serverAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, fmt.Sprint(cfg.UdpPort)))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Resolving server address: %v", err))
		os.Exit(1)
	}

	sock, err := socket.New(
		socket.Config{
			ListenAddr: serverAddr,
			Logger:     mustLogger(logger.New("SERVER-SOCKET", config.ColorBlue, os.Stdout)),
		},
		socket.WithReadBufferSize(cfg.UDPBufferSize),
		socket.WithQueueSize(cfg.QueueSize),
	)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating UDP socket: %v", err))
		os.Exit(1)
	}

	udpSocket = sock
	appLogger.Info(fmt.Sprintf("UDP socket bound on %s", sock.Addr()))
}

func initEventHub() {
	if cfg.HttpPort == 0 {
		return
	}
	eventHub = feed.NewHub(mustLogger(logger.New("FEED", config.ColorPurple, os.Stdout)))
	feedServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HttpPort),
		Handler:           feed.NewRouter(eventHub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLogger.Info("Event feed initialized")
}

func initRelay() {
	c := &service.Config{
		Sender:    udpSocket,
		Level:     cfg.Level,
		QueueSize: cfg.QueueSize,
		Logger:    mustLogger(logger.New("RELAY", config.ColorCyan, os.Stdout)),
	}
	if eventHub != nil {
		c.Events = eventHub
	}
	r, err := service.NewRelay(c)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating relay: %v", err))
		os.Exit(1)
	}
	relay = r
	appLogger.Info("Relay initialized")
}

func initSessionController() {
	grpcServer = grpc.NewServer()
	err := api.RegisterNewSessionServer(grpcServer, relay, udpSocket.Addr().String(), mustLogger(logger.New("ADMIN", config.ColorYellow, os.Stdout)))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating and registering session controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Session controller initialized")
}

// localIP returns the address the host would use for outbound traffic.
// No packet is sent; dialing UDP only selects a route.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		appLogger.Warning(fmt.Sprintf("Detecting local IP, binding all interfaces: %v", err))
		return "0.0.0.0"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)
	initConfig()
	initUDPSocket()
	initEventHub()
	initRelay()
	initSessionController()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go relay.Run(ctx)
	go udpSocket.Serve(ctx, relay.HandleDatagram)
	appLogger.Info(fmt.Sprintf("Server listening on %s", udpSocket.Addr()))

	if eventHub != nil {
		go eventHub.Run()
		go func() {
			if err := feedServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error(fmt.Sprintf("Serving event feed: %v", err))
			}
		}()
		appLogger.Info(fmt.Sprintf("Serving event feed at: %s", feedServer.Addr))
	}

	var err error
	addr := fmt.Sprintf(":%d", cfg.GrpcPort)
	grpcConnListener, err = net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Listening tcp: %v", err))
		os.Exit(1)
	}
	go func() {
		if err := grpcServer.Serve(grpcConnListener); err != nil {
			appLogger.Error(fmt.Sprintf("Serving gRPC: %v", err))
			stop()
		}
	}()
	appLogger.Info(fmt.Sprintf("Serving gRPC at: %s", addr))

	<-ctx.Done()
	appLogger.Info("Shutting down")

	grpcServer.GracefulStop()
	if feedServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = feedServer.Shutdown(shutdownCtx)
		cancel()
		eventHub.Close()
	}
	udpSocket.Stop()
}
