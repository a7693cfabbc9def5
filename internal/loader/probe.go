package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vidgend/internal/common/execx"
)

// StaticProbe reports fixed values. It backs ACCELERATOR=present|absent and tests.
type StaticProbe struct {
	Accelerator bool
	Headroom    float64
	Err         error
}

func (p StaticProbe) AcceleratorPresent() bool { return p.Accelerator }

func (p StaticProbe) FreeHeadroom() (float64, error) {
	if p.Err != nil {
		return 0, p.Err
	}
	return p.Headroom, nil
}

const defaultProbeTimeout = 5 * time.Second

// NvidiaSMIProbe queries nvidia-smi for the first device's free memory.
type NvidiaSMIProbe struct {
	Path    string
	Timeout time.Duration
	Runner  execx.Runner
}

// NewNvidiaSMIProbe returns a probe running the binary at path ("nvidia-smi" if empty).
func NewNvidiaSMIProbe(path string) *NvidiaSMIProbe {
	if strings.TrimSpace(path) == "" {
		path = "nvidia-smi"
	}
	return &NvidiaSMIProbe{Path: path, Timeout: defaultProbeTimeout, Runner: execx.ExecRunner{}}
}

// AcceleratorPresent is true when the free-memory query succeeds.
func (p *NvidiaSMIProbe) AcceleratorPresent() bool {
	_, err := p.FreeHeadroom()
	return err == nil
}

// FreeHeadroom returns free memory of device 0 in GB.
func (p *NvidiaSMIProbe) FreeHeadroom() (float64, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	runner := p.Runner
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	res, err := runner.Run(ctx, p.Path, "--query-gpu=memory.free", "--format=csv,noheader,nounits")
	if err != nil {
		return 0, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseFreeMiB(res.Stdout)
}

func parseFreeMiB(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		mib, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("nvidia-smi: parse %q: %w", line, err)
		}
		return mib / 1024, nil
	}
	return 0, errors.New("nvidia-smi: no devices reported")
}
