package network

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// NMCLI drives NetworkManager through its command line client.
type NMCLI struct {
	Interface string
	run       func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

func NewNMCLI(iface string) *NMCLI {
	return &NMCLI{Interface: iface, run: runCommand}
}

func runCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	return cmd.CombinedOutput()
}

// Associate asks NetworkManager to join the network without waiting for the
// result; the acquirer polls Connected instead. The password is answered on
// stdin so it never shows up in the process arguments.
func (n *NMCLI) Associate(ctx context.Context, c Credential) error {
	args := []string{"--wait", "0"}
	var stdin []byte
	if c.Password != "" {
		args = append(args, "--ask")
		stdin = []byte(c.Password + "\n")
	}
	args = append(args, "device", "wifi", "connect", c.SSID)
	if n.Interface != "" {
		args = append(args, "ifname", n.Interface)
	}
	out, err := n.run(ctx, stdin, "nmcli", args...)
	if err != nil {
		return fmt.Errorf("nmcli connect %s: %w: %s", c.SSID, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (n *NMCLI) Connected(ctx context.Context) bool {
	out, err := n.run(ctx, nil, "nmcli", "-t", "-f", "DEVICE,TYPE,STATE", "device", "status")
	if err != nil {
		return false
	}
	return parseDeviceStatus(out, n.Interface)
}

// parseDeviceStatus reports whether the named device (or any wifi device
// when iface is empty) is in the connected state.
func parseDeviceStatus(out []byte, iface string) bool {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Split(sc.Text(), ":")
		if len(fields) < 3 {
			continue
		}
		device, kind, state := fields[0], fields[1], fields[2]
		if iface != "" && device != iface {
			continue
		}
		if iface == "" && kind != "wifi" {
			continue
		}
		if state == "connected" {
			return true
		}
	}
	return false
}

// Static is a link that is always up, for wired stations.
type Static struct{}

func (Static) Associate(context.Context, Credential) error { return nil }

func (Static) Connected(context.Context) bool { return true }
