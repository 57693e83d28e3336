//go:build !windows
// +build !windows

package probes

const rootMountpoint = "/"
