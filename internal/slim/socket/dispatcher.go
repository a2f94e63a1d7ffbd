// Package socket implements the single UDP endpoint that demultiplexes
// incoming datagrams into the chunk-reassembly pipeline and the signal
// pipeline, emits acknowledgements, answers pings, and surfaces structured
// rejection errors. Datagrams are handled one at a time by a single receive
// loop; a separate sweep loop evicts stale reassemblies.
package socket

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/SamJakob/SLIM/internal/bufpool"
	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/logger"
	"github.com/SamJakob/SLIM/internal/slim/chunk"
	"github.com/SamJakob/SLIM/internal/slim/collector"
	"github.com/SamJakob/SLIM/internal/slim/hooks"
	"github.com/SamJakob/SLIM/internal/slim/packet"
	"github.com/SamJakob/SLIM/internal/slim/signal"
	"github.com/SamJakob/SLIM/internal/uuidgen"
)

// Config holds dispatcher configuration knobs.
type Config struct {
	// ListenAddr is the local address to bind. Empty (or ":0") picks an
	// ephemeral port, the client-mode behavior; a fixed host:port is server
	// mode.
	ListenAddr string

	ReassemblyTTL time.Duration
	SweepInterval time.Duration

	// Generator produces snowflakes for outgoing packets built via NewOutgoingID.
	Generator uuidgen.Generator

	// Hook configuration, mirroring the lifecycle-event wiring used
	// elsewhere in this codebase (shell scripts, webhooks, structured stdio).
	// HookScripts and HookWebhooks entries are "event_type=target" pairs, e.g.
	// "chunk_rejected=/usr/local/bin/on-reject.sh".
	HookScripts     []string
	HookWebhooks    []string
	HookStdioFormat string
	HookTimeout     string
	HookConcurrency int
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":0"
	}
	if c.ReassemblyTTL == 0 {
		c.ReassemblyTTL = collector.DefaultEntryTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Second
	}
	if c.Generator == nil {
		c.Generator = uuidgen.Default{}
	}
}

// PacketHandler receives reassembled packets.
type PacketHandler func(sender *net.UDPAddr, p *packet.Packet)

// SignalHandler receives parsed signals.
type SignalHandler func(sender *net.UDPAddr, s *signal.Signal)

// Dispatcher owns one UDP socket end to end: binding, the single receive
// loop, reassembly state, and the hook-driven lifecycle events fired along
// the way.
type Dispatcher struct {
	cfg         Config
	conn        *net.UDPConn
	log         *slog.Logger
	collector   *collector.Collector
	hookManager *hooks.HookManager

	mu              sync.RWMutex
	closed          bool
	packetListeners []PacketHandler
	signalListeners []SignalHandler

	wg   sync.WaitGroup
	stop chan struct{}
}

// New creates an unstarted Dispatcher.
func New(cfg Config) *Dispatcher {
	cfg.applyDefaults()
	return &Dispatcher{
		cfg:         cfg,
		collector:   collector.New(cfg.ReassemblyTTL),
		hookManager: buildHookManager(cfg, logger.Logger()),
		log:         logger.Logger().With("component", "slim_socket"),
		stop:        make(chan struct{}),
	}
}

// Start binds the socket to Config.ListenAddr (server mode when that is a
// fixed host:port) and launches the receive and sweep loops.
func (d *Dispatcher) Start() error {
	return d.bind(d.cfg.ListenAddr)
}

// Connect binds the socket in client mode (an ephemeral local port on
// Config.ListenAddr's host, whatever port ListenAddr names) and launches the
// receive and sweep loops.
func (d *Dispatcher) Connect() error {
	host, _, err := net.SplitHostPort(d.cfg.ListenAddr)
	if err != nil {
		return protoerr.NewSocketError("socket.resolve", err)
	}
	return d.bind(net.JoinHostPort(host, "0"))
}

func (d *Dispatcher) bind(listenAddr string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return protoerr.ErrAlreadyClosed
	}
	if d.conn != nil {
		d.mu.Unlock()
		return protoerr.NewSocketError("socket.start", errAlreadyStarted)
	}
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		d.mu.Unlock()
		return protoerr.NewSocketError("socket.resolve", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		d.mu.Unlock()
		return protoerr.NewSocketError("socket.bind", err)
	}
	d.conn = conn
	d.mu.Unlock()

	d.log.Info("dispatcher listening", "addr", conn.LocalAddr().String())

	d.wg.Add(2)
	go d.receiveLoop()
	go d.sweepLoop()
	return nil
}

// Addr returns the bound local address, or nil if not yet started.
func (d *Dispatcher) Addr() net.Addr {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.conn == nil {
		return nil
	}
	return d.conn.LocalAddr()
}

// Listen registers a consumer of reassembled incoming packets.
func (d *Dispatcher) Listen(fn PacketHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.packetListeners = append(d.packetListeners, fn)
}

// OnSignal registers a consumer of parsed incoming signals.
func (d *Dispatcher) OnSignal(fn SignalHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signalListeners = append(d.signalListeners, fn)
}

// Send chunkifies p and sends each chunk as its own datagram to target.
func (d *Dispatcher) Send(target *net.UDPAddr, p *packet.Packet) error {
	d.mu.RLock()
	conn, closed := d.conn, d.closed
	d.mu.RUnlock()
	if closed || conn == nil {
		return protoerr.ErrAlreadyClosed
	}

	packed := p.Pack()
	chunks := chunk.Chunkify(p.Snowflake, packed)
	for _, c := range chunks {
		buf := bufpool.Get(chunk.MaxChunkSize)
		datagram := c.PackInto(buf)
		_, err := conn.WriteToUDP(datagram, target)
		bufpool.Put(buf)
		if err != nil {
			return protoerr.NewSocketError("socket.send", err)
		}
	}
	return nil
}

// SendSignal sends a packed signal in a single datagram to target.
func (d *Dispatcher) SendSignal(target *net.UDPAddr, s *signal.Signal) error {
	d.mu.RLock()
	conn, closed := d.conn, d.closed
	d.mu.RUnlock()
	if closed || conn == nil {
		return protoerr.ErrAlreadyClosed
	}
	if _, err := conn.WriteToUDP(s.Pack(), target); err != nil {
		return protoerr.NewSocketError("socket.send_signal", err)
	}
	return nil
}

// NewOutgoingID generates a fresh snowflake using the configured generator.
func (d *Dispatcher) NewOutgoingID() [16]byte {
	return d.cfg.Generator.New()
}

// Close tears down the socket, discards pending reassemblies, and stops the
// dispatch and sweep loops. Idempotent: a second call is a no-op.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	conn := d.conn
	d.mu.Unlock()

	close(d.stop)
	d.collector.Close()
	if conn != nil {
		_ = conn.Close()
	}
	if d.hookManager != nil {
		_ = d.hookManager.Close()
	}
	d.wg.Wait()
	d.log.Info("dispatcher closed")
	return nil
}

func (d *Dispatcher) receiveLoop() {
	defer d.wg.Done()

	for {
		buf := bufpool.Get(chunk.MaxChunkSize)
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			bufpool.Put(buf)
			select {
			case <-d.stop:
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			d.log.Warn("receive error", "error", err)
			return
		}
		// dispatch and everything it calls copies out whatever bytes it needs
		// to retain (chunk/signal Parse both allocate their own body slices),
		// so buf can return to the pool as soon as dispatch returns.
		d.dispatch(addr, buf[:n])
		bufpool.Put(buf)
	}
}

func (d *Dispatcher) dispatch(addr *net.UDPAddr, data []byte) {
	switch {
	case chunk.IsChunk(data):
		d.handleChunk(addr, data)
	case signal.IsSignal(data):
		d.handleSignal(addr, data)
	default:
		d.log.Debug("dropping unrecognized datagram", "peer_addr", addr.String(), "len", len(data))
	}
}

func (d *Dispatcher) handleChunk(addr *net.UDPAddr, data []byte) {
	c, err := chunk.Parse(data)
	if err != nil {
		d.rejectIfPossible(addr, err, "chunk parse failed")
		return
	}
	p, err := d.collector.AddChunk(addr.String(), c)
	if err != nil {
		d.rejectIfPossible(addr, err, "reassembly failed")
		return
	}
	if p == nil {
		return // reassembly still in progress
	}

	// An acknowledged signal is sent before the packet event reaches
	// listeners (the collector's internal completion runs first).
	ack := signal.NewAcknowledged(p.Snowflake)
	if err := d.SendSignal(addr, ack); err != nil {
		d.log.Warn("failed to send acknowledged signal", "error", err)
	}
	d.triggerHook(hooks.EventPacketReassembled, addr, p.Snowflake, map[string]interface{}{
		"packet_id": p.ID,
	})

	d.mu.RLock()
	listeners := append([]PacketHandler(nil), d.packetListeners...)
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(addr, p)
	}
}

func (d *Dispatcher) handleSignal(addr *net.UDPAddr, data []byte) {
	s, err := signal.Parse(data)
	if err != nil {
		d.log.Warn("dropping malformed signal", "peer_addr", addr.String(), "error", err)
		return
	}
	if s.Type == signal.TypePing {
		if err := d.SendSignal(addr, signal.NewPong()); err != nil {
			d.log.Warn("failed to send pong", "error", err)
		}
	}
	if s.Type == signal.TypeAcknowledged {
		if sf, err := s.Snowflake(); err == nil {
			d.triggerHook(hooks.EventPeerAcknowledged, addr, sf, nil)
		}
	}
	if d.hookManager != nil {
		event := hooks.NewEvent(hooks.EventSignalReceived).
			WithPeerAddr(addr.String()).
			WithData("signal_type", int(s.Type))
		if sf, err := s.Snowflake(); err == nil {
			event.WithSnowflake(sf)
		}
		d.hookManager.TriggerEvent(context.Background(), *event)
	}

	d.mu.RLock()
	listeners := append([]SignalHandler(nil), d.signalListeners...)
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(addr, s)
	}
}

// rejectIfPossible converts a protocol error with rejection context into a
// `rejected` signal sent back to the sender; it never surfaces err to a
// listener.
func (d *Dispatcher) rejectIfPossible(addr *net.UDPAddr, err error, logMsg string) {
	d.log.Warn(logMsg, "peer_addr", addr.String(), "error", err)
	snowflake, reason, ok := protoerr.AsRejection(err)
	if !ok {
		return
	}
	rej, buildErr := signal.NewRejected(snowflake, reason)
	if buildErr != nil {
		d.log.Warn("failed to build rejected signal", "error", buildErr)
		return
	}
	if err := d.SendSignal(addr, rej); err != nil {
		d.log.Warn("failed to send rejected signal", "error", err)
	}
	d.triggerHook(hooks.EventChunkRejected, addr, snowflake, map[string]interface{}{
		"reason": reason,
	})
}

func (d *Dispatcher) sweepLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case now := <-ticker.C:
			for _, ev := range d.collector.Sweep(now) {
				d.handleReassemblyTimeout(ev)
			}
		}
	}
}

func (d *Dispatcher) handleReassemblyTimeout(ev collector.Eviction) {
	addr, err := net.ResolveUDPAddr("udp", ev.Sender)
	if err != nil {
		d.log.Warn("failed to resolve timed-out sender", "sender", ev.Sender, "error", err)
		return
	}
	rej, err := signal.NewRejected(ev.Snowflake, protoerr.ReasonTimeout)
	if err != nil {
		d.log.Warn("failed to build timeout rejection", "error", err)
		return
	}
	if err := d.SendSignal(addr, rej); err != nil {
		d.log.Warn("failed to send timeout rejection", "error", err)
	}
	d.triggerHook(hooks.EventReassemblyTimeout, addr, ev.Snowflake, nil)
}

func (d *Dispatcher) triggerHook(eventType hooks.EventType, addr *net.UDPAddr, snowflake [16]byte, data map[string]interface{}) {
	if d.hookManager == nil {
		return
	}
	event := hooks.NewEvent(eventType).
		WithPeerAddr(addr.String()).
		WithSnowflake(snowflake)
	for k, v := range data {
		event.WithData(k, v)
	}
	d.hookManager.TriggerEvent(context.Background(), *event)
}

var errAlreadyStarted = fmt.Errorf("socket: dispatcher already started")

// buildHookManager wires the configured hook scripts and webhooks into a
// HookManager, registering each against the single event type named in its
// "event_type=target" assignment (see splitHookAssignment). Returns nil if
// no hooks are configured at all and stdio output is disabled.
func buildHookManager(cfg Config, log *slog.Logger) *hooks.HookManager {
	if len(cfg.HookScripts) == 0 && len(cfg.HookWebhooks) == 0 && cfg.HookStdioFormat == "" {
		return nil
	}

	hookConfig := hooks.HookConfig{
		Timeout:     cfg.HookTimeout,
		Concurrency: cfg.HookConcurrency,
		StdioFormat: cfg.HookStdioFormat,
	}.WithDefaults()
	timeoutDuration := hookConfig.TimeoutDuration()

	manager := hooks.NewHookManager(hookConfig, log)

	for i, assignment := range cfg.HookScripts {
		eventType, target, ok := splitHookAssignment(assignment)
		if !ok {
			log.Warn("skipping malformed hook-script assignment", "value", assignment)
			continue
		}
		hook := hooks.NewShellHook(fmt.Sprintf("script-%d", i), target, timeoutDuration)
		_ = manager.RegisterHook(eventType, hook)
	}
	for i, assignment := range cfg.HookWebhooks {
		eventType, target, ok := splitHookAssignment(assignment)
		if !ok {
			log.Warn("skipping malformed hook-webhook assignment", "value", assignment)
			continue
		}
		hook := hooks.NewWebhookHook(fmt.Sprintf("webhook-%d", i), target, timeoutDuration)
		_ = manager.RegisterHook(eventType, hook)
	}

	return manager
}

// splitHookAssignment splits an "event_type=target" hook flag value.
func splitHookAssignment(assignment string) (eventType hooks.EventType, target string, ok bool) {
	idx := strings.IndexByte(assignment, '=')
	if idx <= 0 || idx == len(assignment)-1 {
		return "", "", false
	}
	return hooks.EventType(assignment[:idx]), assignment[idx+1:], true
}
