// Package bootstrap implements the stdin-driven, order-sensitive role
// setup prompts: selecting EU or IR role and collecting the handful of
// values each role needs before any socket opens.
package bootstrap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mehrannoway-ops/TuM/internal/config"
)

// ErrInvalidMode is returned when the first token isn't "1" or "2":
// any other first token exits non-zero.
var ErrInvalidMode = fmt.Errorf("bootstrap: invalid mode selection")

// Prompter reads ordered answers from r, writing each prompt to w
// first so an interactive terminal sees what it's being asked for.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New wraps r/w for prompting. In tests r is typically a
// strings.Reader over a scripted sequence of answers.
func New(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(r), out: w}
}

// SelectRole reads the first token and returns "eu", "ir", or
// ErrInvalidMode.
func (p *Prompter) SelectRole() (string, error) {
	fmt.Fprint(p.out, "Select role (1=EU, 2=IR): ")
	tok, err := p.readLine()
	if err != nil {
		return "", err
	}
	switch strings.TrimSpace(tok) {
	case "1":
		return "eu", nil
	case "2":
		return "ir", nil
	default:
		return "", ErrInvalidMode
	}
}

// EUConfig runs the EU bootstrap sequence: iran_ip, bridge_port,
// sync_port, autosync.
func (p *Prompter) EUConfig() (config.EUConfig, error) {
	iranIP, err := p.readDefault("Iran IP", "127.0.0.1")
	if err != nil {
		return config.EUConfig{}, err
	}
	bridgePort, err := p.readIntDefault("Bridge port", 7000)
	if err != nil {
		return config.EUConfig{}, err
	}
	syncPort, err := p.readIntDefault("Sync port", 7001)
	if err != nil {
		return config.EUConfig{}, err
	}
	autoSync, err := p.readBoolDefault("Enable AutoSync", true)
	if err != nil {
		return config.EUConfig{}, err
	}

	return config.EUConfig{
		IranIP:         iranIP,
		BridgePort:     bridgePort,
		SyncPort:       syncPort,
		EnableAutoSync: autoSync,
	}, nil
}

// IRConfig runs the IR bootstrap sequence: bridge_port, sync_port,
// autosync, and (only if autosync is declined) a manual
// comma-separated port list.
func (p *Prompter) IRConfig() (config.IRConfig, error) {
	bridgePort, err := p.readIntDefault("Bridge port", 7000)
	if err != nil {
		return config.IRConfig{}, err
	}
	syncPort, err := p.readIntDefault("Sync port", 7001)
	if err != nil {
		return config.IRConfig{}, err
	}
	autoSync, err := p.readBoolDefault("Enable AutoSync", true)
	if err != nil {
		return config.IRConfig{}, err
	}

	cfg := config.IRConfig{
		BridgePort: bridgePort,
		SyncPort:   syncPort,
		AutoSync:   autoSync,
	}

	if !autoSync {
		raw, err := p.readDefault("Manual ports (comma-separated)", "")
		if err != nil {
			return config.IRConfig{}, err
		}
		cfg.ManualPorts = parsePortList(raw)
	}

	return cfg, nil
}

func (p *Prompter) readLine() (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *Prompter) readDefault(label, def string) (string, error) {
	fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *Prompter) readIntDefault(label string, def int) (int, error) {
	raw, err := p.readDefault(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, nil
	}
	return n, nil
}

func (p *Prompter) readBoolDefault(label string, def bool) (bool, error) {
	defStr := "y"
	if !def {
		defStr = "n"
	}
	raw, err := p.readDefault(label+" (y/n)", defStr)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}

func parsePortList(raw string) []int {
	parts := strings.Split(raw, ",")
	ports := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		ports = append(ports, n)
	}
	return ports
}
