package hpshare

import (
	"fmt"

	"github.com/kardianos/service"
)

// ControlService executes one service-manager command against the installed
// daemon and reports what happened. service.Control is not used because its
// uninstall path leaves a running service behind.
func ControlService(svc service.Service, command string) (string, error) {
	switch command {
	case "install":
		if err := svc.Install(); err != nil {
			return "", err
		}
		return "Service installed", nil
	case "uninstall":
		status, err := svc.Status()
		if err != nil {
			return "", err
		}
		if status == service.StatusRunning {
			if err := svc.Stop(); err != nil {
				return "", err
			}
		}
		if err := svc.Uninstall(); err != nil {
			return "", err
		}
		return "Service uninstalled", nil
	case "start":
		if err := svc.Start(); err != nil {
			return "", err
		}
		return "Service started", nil
	case "stop":
		if err := svc.Stop(); err != nil {
			return "", err
		}
		return "Service stopped", nil
	}
	return "", fmt.Errorf("unknown service command %q", command)
}
