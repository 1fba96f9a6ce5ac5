package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const programEnv = "HARNESS_PROGRAM"

// DefaultImages maps wire languages to the container images that run them.
var DefaultImages = map[string]string{
	"python":     "python:3.11-alpine",
	"javascript": "node:20-alpine",
	"go":         "golang:1.22-alpine",
}

// DockerConfig groups DockerRunner configuration values.
type DockerConfig struct {
	Host          string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	Images        map[string]string
	Logger        zerolog.Logger
}

// DockerRunner runs programs in short-lived local containers with networking disabled.
type DockerRunner struct {
	client *client.Client
	cfg    DockerConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

type containerSpec struct {
	Image string
	Cmd   []string
	Env   []string
}

type containerOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// NewDockerRunner constructs a Docker backed dispatcher.
func NewDockerRunner(cfg DockerConfig) (*DockerRunner, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExecutionTimeout
	}
	if len(cfg.Images) == 0 {
		cfg.Images = DefaultImages
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerRunner{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/treytuscai/DevReady/pkg/sandbox"),
		logger: logger.With().Str("component", "sandbox_docker").Logger(),
	}, nil
}

// Dispatch runs the program in a container for its language and parses its stdout.
func (r *DockerRunner) Dispatch(ctx context.Context, language, program string) ExecutionResult {
	spec, ok := buildContainerSpec(r.cfg.Images, language, program)
	if !ok {
		return Unsupported(language)
	}

	ctx, span := r.tracer.Start(ctx, "sandbox.docker.dispatch", trace.WithAttributes(
		attribute.String("sandbox.language", language),
		attribute.String("docker.image", spec.Image),
	))
	defer span.End()

	start := time.Now()
	out, err := r.run(ctx, spec)
	dispatchDuration.WithLabelValues("docker", language).Observe(time.Since(start).Seconds())

	result, outcome := interpretContainerRun(out, err, r.cfg.Timeout)
	dispatchTotal.WithLabelValues("docker", language, outcome).Inc()
	if outcome != outcomeOK {
		span.SetStatus(codes.Error, outcome)
		if err != nil {
			span.RecordError(err)
		}
	}
	return result
}

func buildContainerSpec(images map[string]string, language, program string) (containerSpec, bool) {
	image, ok := images[language]
	if !ok {
		return containerSpec{}, false
	}

	spec := containerSpec{Image: image, Env: []string{programEnv + "=" + program}}
	switch language {
	case "python":
		spec.Cmd = []string{"sh", "-c", `printf '%s' "$` + programEnv + `" > /tmp/main.py && python3 /tmp/main.py`}
	case "javascript":
		spec.Cmd = []string{"sh", "-c", `printf '%s' "$` + programEnv + `" > /tmp/main.js && node /tmp/main.js`}
	case "go":
		spec.Cmd = []string{"sh", "-c", `printf '%s' "$` + programEnv + `" > /tmp/main.go && go run /tmp/main.go`}
		spec.Env = append(spec.Env, "GOCACHE=/tmp/gocache", "CGO_ENABLED=0")
	default:
		return containerSpec{}, false
	}
	return spec, true
}

// interpretContainerRun turns a container run into an ExecutionResult. Container
// stderr lines are appended after the envelope's own stderr.
func interpretContainerRun(out containerOutput, err error, timeout time.Duration) (ExecutionResult, string) {
	if out.TimedOut {
		return Failure(fmt.Sprintf("Execution timed out after %s", timeout)), outcomeTimeout
	}
	if err != nil {
		return Failure(fmt.Sprintf("Request failed: %v", err)), outcomeTransport
	}

	result := ParseOutput(out.Stdout)
	result.Stderr = append(result.Stderr, splitLines(out.Stderr)...)
	if out.ExitCode != 0 && len(result.Stderr) == 0 {
		result.Stderr = []string{fmt.Sprintf("Process exited with status %d", out.ExitCode)}
	}
	if len(result.Stderr) == 0 {
		result.Stderr = nil
	}
	return result, outcomeOK
}

func (r *DockerRunner) run(parent context.Context, spec containerSpec) (containerOutput, error) {
	ctx, cancel := context.WithTimeout(parent, r.cfg.Timeout)
	defer cancel()

	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    r.cfg.MemoryLimitMB * 1024 * 1024,
			CPUShares: r.cfg.CPUShares,
		},
	}
	config := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		Env:          spec.Env,
		WorkingDir:   "/tmp",
		AttachStdout: true,
		AttachStderr: true,
	}

	out := containerOutput{}
	resp, err := r.client.ContainerCreate(ctx, config, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return out, fmt.Errorf("container create: %w", err)
	}

	containerID := resp.ID
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			r.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
		}
	}()

	if err := r.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return out, fmt.Errorf("container start: %w", err)
	}

	statusCh, errCh := r.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		out.ExitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			out.TimedOut = true
			killCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := r.client.ContainerKill(killCtx, containerID, "KILL"); err != nil {
				r.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out container")
			}
			return out, waitErr
		}
		return out, fmt.Errorf("container wait: %w", waitErr)
	}

	logReader, err := r.client.ContainerLogs(parent, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return out, fmt.Errorf("container logs: %w", err)
	}
	defer logReader.Close()

	stdout, stderr, err := splitDockerLogs(logReader)
	if err != nil {
		return out, fmt.Errorf("read container logs: %w", err)
	}
	out.Stdout = stdout
	out.Stderr = stderr
	return out, nil
}

func splitDockerLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Close shuts down the runner's underlying client.
func (r *DockerRunner) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
