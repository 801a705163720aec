//go:build !linux

package audio

// ListDevices returns an empty list on platforms without an ALSA
// backend; the `devices` CLI subcommand still runs, it simply has
// nothing hardware-backed to report.
func ListDevices() ([]DeviceInfo, error) {
	return nil, nil
}
