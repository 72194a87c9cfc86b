// aerofly-sim feeds synthetic XGPS/XATT datagrams to a running bridge,
// standing in for Aerofly FS4 during development.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aerofly-bridge/internal/sim"
	"aerofly-bridge/internal/telemetry"
	"aerofly-bridge/internal/udp"
)

func main() {
	var (
		dest     string
		interval time.Duration
		script   string
		lat      float64
		lon      float64
		altM     float64
		gsMPS    float64
		radiusNm float64
		period   time.Duration
		traffic  int
	)
	flag.StringVar(&dest, "dest", "127.0.0.1:49002", "Bridge UDP address")
	flag.DurationVar(&interval, "interval", 500*time.Millisecond, "Send interval")
	flag.StringVar(&script, "script", "", "YAML flight script (overrides the figure-eight flags)")
	flag.Float64Var(&lat, "lat", 47.4502, "Flight center latitude")
	flag.Float64Var(&lon, "lon", -122.3088, "Flight center longitude")
	flag.Float64Var(&altM, "alt-m", 900, "Altitude MSL in meters")
	flag.Float64Var(&gsMPS, "gs-mps", 45, "Ground speed in m/s")
	flag.Float64Var(&radiusNm, "radius-nm", 0.5, "Flight radius in NM")
	flag.DurationVar(&period, "period", 120*time.Second, "Lap period")
	flag.IntVar(&traffic, "traffic", 0, "Orbiting XTRAFFIC targets to emit alongside ownship")
	flag.Parse()

	b, err := udp.NewBroadcaster(dest)
	if err != nil {
		log.Fatalf("udp broadcaster init failed: %v", err)
	}
	defer b.Close()

	at := func(elapsed time.Duration) (telemetry.PositionRecord, telemetry.AttitudeRecord) {
		return sim.Ownship{
			CenterLatDeg: lat,
			CenterLonDeg: lon,
			AltMeters:    altM,
			GroundMPS:    gsMPS,
			RadiusNm:     radiusNm,
			Period:       period,
		}.At(elapsed)
	}
	if script != "" {
		fs, err := sim.LoadFlightScript(script)
		if err != nil {
			log.Fatalf("flight script load failed: %v", err)
		}
		flight, err := sim.NewFlight(fs)
		if err != nil {
			log.Fatalf("flight script invalid: %v", err)
		}
		log.Printf("flying script %s duration=%s", script, flight.Duration())
		at = func(elapsed time.Duration) (telemetry.PositionRecord, telemetry.AttitudeRecord) {
			return flight.StateAt(elapsed, true)
		}
	}

	trafficSim := sim.Traffic{
		CenterLatDeg: lat,
		CenterLonDeg: lon,
		RadiusNm:     radiusNm * 4,
		Period:       period,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("aerofly-sim sending to %s every %s", dest, interval)

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("aerofly-sim stopping")
			return
		case now := <-ticker.C:
			elapsed := now.Sub(start)
			pos, att := at(elapsed)
			if err := b.SendLine(sim.FormatPosition(pos)); err != nil {
				log.Printf("send failed: %v", err)
				continue
			}
			if err := b.SendLine(sim.FormatAttitude(att)); err != nil {
				log.Printf("send failed: %v", err)
			}
			for _, tgt := range trafficSim.At(elapsed, traffic) {
				if err := b.SendLine(sim.FormatTraffic(tgt)); err != nil {
					log.Printf("send failed: %v", err)
				}
			}
		}
	}
}
