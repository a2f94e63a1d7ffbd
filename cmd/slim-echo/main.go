package main

import (
	"context"
	"fmt"
	"net"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/SamJakob/SLIM/internal/logger"
	"github.com/SamJakob/SLIM/internal/slim/packet"
	"github.com/SamJakob/SLIM/internal/slim/signal"
	"github.com/SamJakob/SLIM/internal/slim/socket"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		// the flag package has already printed parse errors and usage;
		// validation errors returned by parseFlags are not printed
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	reassemblyTTL, _ := time.ParseDuration(cfg.reassemblyTTL)
	sweepInterval, _ := time.ParseDuration(cfg.sweepInterval)

	dispatcher := socket.New(socket.Config{
		ListenAddr:      cfg.listenAddr,
		ReassemblyTTL:   reassemblyTTL,
		SweepInterval:   sweepInterval,
		HookScripts:     cfg.hookScripts,
		HookWebhooks:    cfg.hookWebhooks,
		HookStdioFormat: cfg.hookStdioFormat,
		HookTimeout:     cfg.hookTimeout,
		HookConcurrency: cfg.hookConcurrency,
	})

	dispatcher.Listen(func(sender *net.UDPAddr, p *packet.Packet) {
		log.Info("packet reassembled", "peer_addr", sender.String(), "packet_id", p.ID, "body_len", len(p.Body))
		echo := packet.New(p.ID, dispatcher.NewOutgoingID(), p.Body)
		if err := dispatcher.Send(sender, echo); err != nil {
			log.Warn("failed to echo packet", "error", err)
		}
	})
	dispatcher.OnSignal(func(sender *net.UDPAddr, s *signal.Signal) {
		log.Debug("signal received", "peer_addr", sender.String(), "type", s.Type)
	})

	if err := dispatcher.Start(); err != nil {
		log.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	log.Info("dispatcher started", "addr", dispatcher.Addr().String(), "version", version)

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := dispatcher.Close(); err != nil {
			log.Error("dispatcher close error", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("dispatcher stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}
