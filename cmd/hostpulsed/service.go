package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/kardianos/service"

	hpserver "github.com/hostpulse/hostpulse/server"
	hpshare "github.com/hostpulse/hostpulse/share"
)

var svcConfig = &service.Config{
	Name:        "hostpulsed",
	DisplayName: "HostPulse Telemetry Daemon",
	Description: "Collects host telemetry and serves it over HTTP.",
}

func handleSvcCommand(svcCommand string, configPath string, user string) error {
	svc, err := getService(nil, configPath, user)
	if err != nil {
		return err
	}

	message, err := hpshare.ControlService(svc, svcCommand)
	if err != nil {
		return err
	}
	fmt.Println(message)
	return nil
}

func runAsService(s *hpserver.Server, configPath string) error {
	svc, err := getService(s, configPath, "")
	if err != nil {
		return err
	}

	return svc.Run()
}

func getService(s *hpserver.Server, configPath string, user string) (service.Service, error) {
	if configPath != "" {
		absConfigPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, err
		}
		svcConfig.Arguments = []string{"-c", absConfigPath}
	}
	if user != "" {
		svcConfig.UserName = user
	}
	return service.New(&serviceWrapper{s}, svcConfig)
}

type serviceWrapper struct {
	*hpserver.Server
}

func (w *serviceWrapper) Start(service.Service) error {
	if w.Server == nil {
		return nil
	}
	go func() {
		if err := w.Server.Run(); err != nil {
			log.Println(err)
		}
	}()
	return nil
}

func (w *serviceWrapper) Stop(service.Service) error {
	return w.Server.Close()
}
