// Package bridge runs the ingress loop: UDP datagrams in, state store
// updates, client broadcasts, and SimAPI file writes out.
package bridge

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"aerofly-bridge/internal/simapi"
	"aerofly-bridge/internal/state"
	"aerofly-bridge/internal/telemetry"
	"aerofly-bridge/internal/udp"
	"aerofly-bridge/internal/ws"
)

// datagramReader is the receive side of the UDP listener; see
// udp.Listener. Narrowed for tests.
type datagramReader interface {
	ReadDatagram(buf []byte, wait time.Duration) (int, bool, error)
}

// fileWriter is the SimAPI output sink; see simapi.Writer.
type fileWriter interface {
	MaybeWrite(snap state.Snapshot, now time.Time, clients int) (bool, error)
}

// clientHub is the fan-out side of the websocket hub.
type clientHub interface {
	ClientCount() int
	BroadcastPosition(lat, lon, heading float64)
	BroadcastText(msg string)
}

// dataMonitor is the liveness monitor's fast path.
type dataMonitor interface {
	NoteData()
}

type Config struct {
	// PollWait bounds each UDP read so the shutdown signal is observed
	// promptly on a quiet socket.
	PollWait time.Duration
}

type Bridge struct {
	listener datagramReader
	store    *state.Store
	hub      clientHub
	writer   fileWriter
	monitor  dataMonitor
	status   *Status

	pollWait time.Duration
	now      func() time.Time
}

func New(listener *udp.Listener, store *state.Store, hub *ws.Hub, writer *simapi.Writer, monitor *ws.Monitor, status *Status, cfg Config) *Bridge {
	return newBridge(listener, store, hub, writer, monitor, status, cfg)
}

func newBridge(listener datagramReader, store *state.Store, hub clientHub, writer fileWriter, monitor dataMonitor, status *Status, cfg Config) *Bridge {
	if cfg.PollWait <= 0 {
		cfg.PollWait = 100 * time.Millisecond
	}
	if status == nil {
		status = NewStatus()
	}
	return &Bridge{
		listener: listener,
		store:    store,
		hub:      hub,
		writer:   writer,
		monitor:  monitor,
		status:   status,
		pollWait: cfg.PollWait,
		now:      time.Now,
	}
}

func (b *Bridge) Store() *state.Store { return b.store }

func (b *Bridge) Status() *Status { return b.status }

// Run reads datagrams until ctx is canceled. UDP is lossy by nature, so
// there is no retry anywhere in here: state simply reflects the next
// successful receive.
func (b *Bridge) Run(ctx context.Context) error {
	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, ok, err := b.listener.ReadDatagram(buf, b.pollWait)
		if err != nil {
			// The socket is closed underneath us during shutdown.
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("udp read: %w", err)
		}
		if !ok {
			continue
		}
		line := strings.TrimSpace(string(buf[:n]))
		if line == "" {
			continue
		}
		b.status.datagrams.Add(1)
		b.HandleLine(line)
	}
}

// HandleLine dispatches one decoded datagram line. Parse failures never
// abort the loop.
func (b *Bridge) HandleLine(line string) {
	res := telemetry.Parse(line)
	switch res.Kind {
	case telemetry.KindPosition:
		b.handlePosition(res.Position)
	case telemetry.KindAttitude:
		b.handleAttitude(res.Attitude)
	case telemetry.KindRadioUpdate:
		// Older web interface revisions send radio updates over UDP.
		b.StageRadio(res.Radio)
	case telemetry.KindShutdown:
		// Shutdown is only honored on the streaming connection, where
		// the requester can receive the acknowledgment.
		log.Printf("shutdown over udp ignored")
		b.status.invalid.Add(1)
	case telemetry.KindUnrecognized:
		// Forward verbatim so the web interface can show stray traffic.
		b.hub.BroadcastText(res.Raw)
		b.status.echoed.Add(1)
	default:
		b.status.invalid.Add(1)
		if res.Err != nil {
			log.Printf("control message ignored: %v", res.Err)
		}
	}
}

func (b *Bridge) handlePosition(p telemetry.PositionRecord) {
	now := b.now()
	// RecordPosition also commits any pending radio update, so the
	// snapshot written below already carries it.
	b.store.RecordPosition(now, p)
	b.status.positions.Add(1)

	b.hub.BroadcastPosition(p.LatDeg, p.LonDeg, p.TrackDeg)
	b.monitor.NoteData()
	b.maybeWrite(now)
}

func (b *Bridge) handleAttitude(a telemetry.AttitudeRecord) {
	now := b.now()
	b.store.RecordAttitude(now, a)
	b.status.attitudes.Add(1)

	b.monitor.NoteData()
	b.maybeWrite(now)
}

func (b *Bridge) maybeWrite(now time.Time) {
	wrote, err := b.writer.MaybeWrite(b.store.Snapshot(), now, b.hub.ClientCount())
	if err != nil {
		// Keep running; the next cycle covers it.
		b.status.writeErrors.Add(1)
		log.Printf("simapi write failed: %v", err)
		return
	}
	if wrote {
		b.status.writes.Add(1)
	}
}

// StageRadio parks a radio update for the next position sample. Wired
// to the websocket server's control path as well as the UDP fallback.
func (b *Bridge) StageRadio(r telemetry.RadioState) {
	b.store.StageRadioUpdate(r)
	b.status.radioUpdates.Add(1)
	log.Printf("radio update staged com1=%s/%s power=%t com2=%s/%s power=%t xpdr=%s power=%t",
		r.Com1.Active, r.Com1.Standby, r.Com1.Power,
		r.Com2.Active, r.Com2.Standby, r.Com2.Power,
		r.Transponder.Code, r.Transponder.Power)
}
