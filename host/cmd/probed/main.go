// Command probed runs the probe platform on a Linux host: indicator LEDs on
// GPIO lines, the 10 Hz tick from a ticker, and the line console on a UART.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"launchprobe/console"
	"launchprobe/core"
	"launchprobe/host/config"
	"launchprobe/host/gpio"
	"launchprobe/host/mirror"
	"launchprobe/host/serial"
	"launchprobe/hostlink"
)

func main() {
	cfgPath := flag.String("config", "", "Config file (default $"+config.EnvConfig+" or /etc/probed/config.*)")
	device := flag.String("device", "", "Serial device path (overrides config)")
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		glog.Errorf("fatal: %v", err)
		glog.Flush()
		os.Exit(1)
	}
	glog.Info("shut down")
}

// routeDebug sends core debug output to glog.
func routeDebug() {
	core.SetDebugWriter(func(s string) { glog.Info(s) })
	core.SetDebugEnabled(bool(glog.V(1)))
	core.InitAsyncDebug()
}

func openDriver(cfg config.GPIOConfig) (gpio.Driver, error) {
	if !cfg.Enabled {
		glog.Info("gpio disabled, logging indicator changes")
		return gpio.NewLogDriver(pinNames(cfg)), nil
	}
	d, err := gpio.NewLineDriver(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	return d, nil
}

func pinNames(cfg config.GPIOConfig) map[core.GPIOPin]string {
	return map[core.GPIOPin]string{
		core.GPIOPin(cfg.RunPin):   "run",
		core.GPIOPin(cfg.ErrorPin): "error",
	}
}

func run(ctx context.Context, cfg config.Config) error {
	routeDebug()

	driver, err := openDriver(cfg.GPIO)
	if err != nil {
		return err
	}
	defer driver.Close()

	var pins core.GPIODriver = driver
	var mirrorDriver *mirror.Driver
	if cfg.MQTT.Enabled {
		pub, err := mirror.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.Topic)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer pub.Close()
		mirrorDriver = mirror.NewDriver(driver, pub, mirror.Config{
			Prefix: cfg.MQTT.Topic,
			Names:  pinNames(cfg.GPIO),
		})
		pins = mirrorDriver
		glog.Infof("mirroring indicators to %s under %s", cfg.MQTT.Broker, cfg.MQTT.Topic)
	}

	platform, err := core.NewPlatform(core.PlatformConfig{
		Driver:   pins,
		RunPin:   core.GPIOPin(cfg.GPIO.RunPin),
		ErrorPin: core.GPIOPin(cfg.GPIO.ErrorPin),
	})
	if err != nil {
		return fmt.Errorf("init platform: %w", err)
	}

	serialCfg := &serial.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeoutMS,
	}
	port, err := serial.Open(serialCfg)
	if err != nil {
		return err
	}
	if np, ok := port.(*serial.NativePort); ok {
		if err := np.Discard(); err != nil {
			glog.Warningf("discard stale input: %v", err)
		}
	}
	transport := hostlink.NewStreamTransport(port, hostlink.StreamConfig{ReadTimeout: serialCfg.TimesOut()})
	defer transport.Close()

	consoleCfg := console.Config{
		IdleTimeoutMS: cfg.Console.IdleTimeoutMS,
		Banner:        cfg.Console.Banner,
		Echo:          cfg.Console.Echo,
	}
	if mirrorDriver != nil {
		consoleCfg.Notify = func(cmd, arg string) {
			if err := mirrorDriver.PublishCommand(cmd, arg); err != nil {
				glog.Warningf("mirror: publish command %s: %v", cmd, err)
			}
		}
	}

	glog.Infof("started: device=%s baud=%d run_pin=%d error_pin=%d tick=%v",
		cfg.Serial.Device, cfg.Serial.Baud, cfg.GPIO.RunPin, cfg.GPIO.ErrorPin, core.TickPeriod)

	ticker := time.NewTicker(core.TickPeriod)
	defer ticker.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if mirrorDriver != nil {
		g.Go(func() error {
			mirrorDriver.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		return serve(gctx, platform, transport, ticker.C, consoleCfg)
	})
	return g.Wait()
}

// serve runs the tick scheduler and the console until ctx ends. The
// scheduler outlives the console: a pending bounded read only finishes on a
// tick, and after a transport failure the target-lost beacon keeps playing
// until ctx ends. The transport error is returned then.
func serve(ctx context.Context, p *core.Platform, t hostlink.Transport, ticks <-chan time.Time, cfg console.Config) error {
	ch := hostlink.NewByteChannel(t, p.Countdown, p.Events)
	con := console.New(ch, p, cfg)

	tickCtx, stopTicks := context.WithCancel(context.Background())
	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		p.Scheduler.Run(tickCtx, ticks)
	}()
	defer func() {
		stopTicks()
		<-tickDone
	}()

	err := con.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}

	p.FatalError()
	glog.Errorf("console: %v; signalling target lost until shutdown", err)
	p.Events.Dump(func(s string) { glog.Error(s) })
	<-ctx.Done()
	return err
}
