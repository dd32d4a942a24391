package actions

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/lkc-technologies/fwact/internal/ferrors"
)

// spawnContext returns ctx.Ctx, or context.Background() if the apply was
// started without one; exec.CommandContext panics on a nil context.
func spawnContext(ctx *Context) context.Context {
	if ctx.Ctx != nil {
		return ctx.Ctx
	}
	return context.Background()
}

func init() {
	register("path_write", Info{Validate: pathWriteValidate, ComputeProgress: pathWriteComputeProgress, Run: pathWriteRun})
	register("pipe_write", Info{Validate: pipeWriteValidate, ComputeProgress: pathWriteComputeProgress, Run: pipeWriteRun})
	register("execute", Info{Validate: executeValidate, ComputeProgress: oneUnit, Run: executeRun})
}

func pathWriteValidate(ctx *Context) error {
	if err := requireKind(ctx, KindFile); err != nil {
		return err
	}
	if err := requireUnsafe(ctx); err != nil {
		return err
	}
	return requireArgc(ctx, 1)
}

func pathWriteComputeProgress(ctx *Context) error {
	res, err := resolveResource(ctx)
	if err != nil {
		return err
	}
	units := res.Map.DataSize()
	if units < 1 {
		units = 1
	}
	ctx.Progress.AddTotal(uint64(units))
	return nil
}

// seqFileSink streams write-with-hash's output into a regular file via
// sequential write(), matching spec.md's "not positional" requirement for
// path_write and pipe_write. The trailing-hole Extend is a Truncate, which
// is deliberately excluded from writeWithHash's byte accounting for every
// caller — see hashwrite.go.
type seqFileSink struct {
	f *os.File
}

func (s *seqFileSink) WriteAt(p []byte, logicalOffset int64, allowGaps bool) error {
	_, err := s.f.Write(p)
	return err
}

func (s *seqFileSink) Extend(totalSize int64) error {
	return s.f.Truncate(totalSize)
}

func (s *seqFileSink) Flush() error {
	return s.f.Close()
}

func pathWriteRun(ctx *Context) error {
	f, err := os.OpenFile(ctx.Argv[0], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	if werr := writeWithHash(ctx, &seqFileSink{f: f}); werr != nil {
		f.Close()
		return werr
	}
	return nil
}

func pipeWriteValidate(ctx *Context) error {
	if err := requireKind(ctx, KindFile); err != nil {
		return err
	}
	if err := requireUnsafe(ctx); err != nil {
		return err
	}
	return requireArgc(ctx, 1)
}

// pipeSink streams write-with-hash's output into a subprocess's stdin,
// reaping the process once the pipe is closed.
type pipeSink struct {
	stdin   io.WriteCloser
	cmd     *exec.Cmd
	written int64
}

func (s *pipeSink) WriteAt(p []byte, logicalOffset int64, allowGaps bool) error {
	n, err := s.stdin.Write(p)
	s.written += int64(n)
	return err
}

func (s *pipeSink) Extend(totalSize int64) error {
	// A pipe has no addressable length to truncate to, so the trailing
	// hole is written out as zero bytes after the data.
	zero := getBuffer(size4k)
	defer putBuffer(zero)
	for s.written < totalSize {
		n := int64(len(zero))
		if totalSize-s.written < n {
			n = totalSize - s.written
		}
		if err := s.WriteAt(zero[:n], s.written, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *pipeSink) Flush() error {
	if err := s.stdin.Close(); err != nil {
		return err
	}
	return s.cmd.Wait()
}

func pipeWriteRun(ctx *Context) error {
	cmd := exec.CommandContext(spawnContext(ctx), "/bin/sh", "-c", ctx.Argv[0])
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	return writeWithHash(ctx, &pipeSink{stdin: stdin, cmd: cmd})
}

func executeValidate(ctx *Context) error {
	if err := requireKind(ctx, KindGlobal); err != nil {
		return err
	}
	if err := requireUnsafe(ctx); err != nil {
		return err
	}
	return requireArgc(ctx, 1)
}

func executeRun(ctx *Context) error {
	cmd := exec.CommandContext(spawnContext(ctx), "/bin/sh", "-c", ctx.Argv[0])
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if ctx.Logger != nil {
			ctx.Logger.Warnf("%s", scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		return ferrors.WrapIO(ctx.Name, err)
	}
	ctx.Progress.Report(1)
	return nil
}
