package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	hpserver "github.com/hostpulse/hostpulse/server"
	hpshare "github.com/hostpulse/hostpulse/share"
)

var serverHelp = `
  Usage: hostpulsed [options]

  Examples:

    ./hostpulsed
    starts the telemetry daemon with the API on 0.0.0.0:5000

    ./hostpulsed --addr=127.0.0.1:8090 --data-dir=/var/lib/hostpulse
    starts the daemon with the API bound to localhost only

  Options:

    --addr, -a, Defines the IP address and port the HTTP API listens on.
    (defaults to the environment variable HOSTPULSE_ADDR and falls back
    to 0.0.0.0:5000).

    --data-dir, Defines the directory for the telemetry database.
    (defaults to ./data)

    --device-id, Overrides the device identity stored with every document.
    By default the OS machine id is used.

    --interval, Defines the cadence of the background refresh loop that
    keeps counter baselines warm and serves queued speed test triggers.
    Defaults to 5s, minimum 1s.

    --ping-target, Defines the host probed for packet loss and jitter.
    Defaults to 8.8.8.8.

    --retention-days, Defines how many days of speed test history to keep.
    0 disables the cleanup job. Defaults to 30.

    --service, Manages hostpulsed as an OS service. Accepts instructions
    "install", "uninstall", "start" and "stop". The only arguments
    compatible with --service are --service-user and --config, others
    will be ignored.

    --service-user, An optional arg specifying user to run hostpulsed
    service under. Only on linux. Defaults to hostpulse.

    --log-file, -l, Defines a log file path. The daemon logs to stdout
    by default.

    --log-level, -v, Specify log level. Values: "error", "info", "debug"
    (defaults to "info")

    --config, -c, An optional arg to define a path to a config file. If it is
    set then the arguments and env variables are ignored and config file
    options are used instead.
    Config file should be in TOML format. You can find an example
    "hostpulsed.example.conf" in the release archive.

    --help, -h, This help text

    --version, Print version info and exit

`

var (
	RootCmd = &cobra.Command{
		Version: hpshare.BuildVersion,
		Run:     runMain,
	}

	cfgPath    *string
	svcCommand *string
	svcUser    *string
	viperCfg   *viper.Viper
	cfg        = &hpserver.Config{}
)

func init() {
	pFlags := RootCmd.PersistentFlags()

	pFlags.StringP("addr", "a", "", "")
	pFlags.String("data-dir", hpserver.DefaultDataDirectory, "")
	pFlags.String("device-id", "", "")
	pFlags.Duration("interval", hpserver.DefaultRefreshInterval, "")
	pFlags.String("ping-target", "", "")
	pFlags.Int64("retention-days", hpserver.DefaultRetentionDays, "")
	pFlags.StringP("log-file", "l", "", "")
	pFlags.StringP("log-level", "v", "", "")

	cfgPath = pFlags.StringP("config", "c", "", "")
	svcCommand = pFlags.String("service", "", "")
	svcUser = pFlags.String("service-user", "hostpulse", "")

	RootCmd.SetUsageFunc(func(*cobra.Command) error {
		fmt.Print(serverHelp)
		os.Exit(1)
		return nil
	})

	viperCfg = viper.New()
	viperCfg.SetConfigType("toml")

	viperCfg.SetDefault("logging.log_level", "info")
	viperCfg.SetDefault("api.address", hpserver.DefaultAPIAddress)
	viperCfg.SetDefault("server.data_dir", hpserver.DefaultDataDirectory)
	viperCfg.SetDefault("server.sqlite_wal", true)
	viperCfg.SetDefault("monitoring.retention_days", hpserver.DefaultRetentionDays)

	// map config fields to CLI args:
	// _ is used to ignore errors to pass linter check
	_ = viperCfg.BindPFlag("logging.log_file", pFlags.Lookup("log-file"))
	_ = viperCfg.BindPFlag("logging.log_level", pFlags.Lookup("log-level"))
	_ = viperCfg.BindPFlag("api.address", pFlags.Lookup("addr"))
	_ = viperCfg.BindPFlag("server.data_dir", pFlags.Lookup("data-dir"))
	_ = viperCfg.BindPFlag("server.device_id", pFlags.Lookup("device-id"))
	_ = viperCfg.BindPFlag("monitoring.interval", pFlags.Lookup("interval"))
	_ = viperCfg.BindPFlag("monitoring.ping_target", pFlags.Lookup("ping-target"))
	_ = viperCfg.BindPFlag("monitoring.retention_days", pFlags.Lookup("retention-days"))

	// map ENV variables
	_ = viperCfg.BindEnv("api.address", "HOSTPULSE_ADDR")
	_ = viperCfg.BindEnv("server.data_dir", "HOSTPULSE_DATA_DIR")
	_ = viperCfg.BindEnv("server.device_id", "HOSTPULSE_DEVICE_ID")
	_ = viperCfg.BindEnv("logging.log_level", "HOSTPULSE_LOG_LEVEL")
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func tryDecodeConfig() error {
	if *cfgPath != "" {
		viperCfg.SetConfigFile(*cfgPath)
	} else {
		viperCfg.AddConfigPath(".")
		viperCfg.SetConfigName("hostpulsed.conf")
	}

	return hpshare.DecodeViperConfig(viperCfg, cfg)
}

func runMain(*cobra.Command, []string) {
	if *svcCommand != "" {
		if err := handleSvcCommand(*svcCommand, *cfgPath, *svcUser); err != nil {
			log.Fatal(err)
		}
		return
	}

	err := tryDecodeConfig()
	if err != nil {
		log.Fatal(err)
	}

	err = cfg.ParseAndValidate()
	if err != nil {
		log.Fatal(err)
	}

	err = cfg.Logging.LogOutput.Start()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		cfg.Logging.LogOutput.Shutdown()
	}()

	s, err := hpserver.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if !service.Interactive() {
		if err = runAsService(s, *cfgPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
		if err := s.Close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err = s.Run(); err != nil {
		log.Fatal(err)
	}
}
