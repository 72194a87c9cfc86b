package bridge

import (
	"sync/atomic"
	"time"
)

// Status accumulates bridge counters for /api/status. Counter-only, so
// plain atomics are enough; no lock is shared with the ingress path.
type Status struct {
	startUnixNano int64

	datagrams    atomic.Uint64
	positions    atomic.Uint64
	attitudes    atomic.Uint64
	invalid      atomic.Uint64
	echoed       atomic.Uint64
	radioUpdates atomic.Uint64
	writes       atomic.Uint64
	writeErrors  atomic.Uint64

	udpListen  atomic.Value // string
	wsListen   atomic.Value // string
	simAPIPath atomic.Value // string
}

func NewStatus() *Status {
	s := &Status{startUnixNano: time.Now().UTC().UnixNano()}
	s.udpListen.Store("")
	s.wsListen.Store("")
	s.simAPIPath.Store("")
	return s
}

func (s *Status) SetStatic(udpListen, wsListen, simAPIPath string) {
	s.udpListen.Store(udpListen)
	s.wsListen.Store(wsListen)
	s.simAPIPath.Store(simAPIPath)
}

type StatusSnapshot struct {
	Service   string `json:"service"`
	NowUTC    string `json:"now_utc"`
	UptimeSec int64  `json:"uptime_sec"`

	UDPListen  string `json:"udp_listen"`
	WSListen   string `json:"ws_listen"`
	SimAPIPath string `json:"simapi_path"`

	Clients      int    `json:"clients"`
	SimConnected bool   `json:"sim_connected"`
	LastDataUTC  string `json:"last_data_utc,omitempty"`

	Datagrams    uint64 `json:"datagrams_total"`
	Positions    uint64 `json:"positions_total"`
	Attitudes    uint64 `json:"attitudes_total"`
	Invalid      uint64 `json:"invalid_total"`
	Echoed       uint64 `json:"echoed_total"`
	RadioUpdates uint64 `json:"radio_updates_total"`
	Writes       uint64 `json:"simapi_writes_total"`
	WriteErrors  uint64 `json:"simapi_write_errors_total"`
}

func (s *Status) Snapshot(nowUTC time.Time, clients int, simConnected bool, lastData time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, s.startUnixNano).UTC()

	snap := StatusSnapshot{
		Service:      "aerofly-bridge",
		NowUTC:       nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:    int64(nowUTC.Sub(start).Seconds()),
		UDPListen:    s.udpListen.Load().(string),
		WSListen:     s.wsListen.Load().(string),
		SimAPIPath:   s.simAPIPath.Load().(string),
		Clients:      clients,
		SimConnected: simConnected,
		Datagrams:    s.datagrams.Load(),
		Positions:    s.positions.Load(),
		Attitudes:    s.attitudes.Load(),
		Invalid:      s.invalid.Load(),
		Echoed:       s.echoed.Load(),
		RadioUpdates: s.radioUpdates.Load(),
		Writes:       s.writes.Load(),
		WriteErrors:  s.writeErrors.Load(),
	}
	if !lastData.IsZero() {
		snap.LastDataUTC = lastData.UTC().Format(time.RFC3339Nano)
	}
	return snap
}
