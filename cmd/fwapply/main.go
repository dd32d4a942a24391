// Command fwapply applies a firmware manifest's action lists against an
// output image or block device, streaming resource bytes from an archive
// and verifying each against its declared BLAKE2b-256 digest as it goes.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"

	"github.com/lkc-technologies/fwact"
	"github.com/lkc-technologies/fwact/internal/archive"
	"github.com/lkc-technologies/fwact/internal/blockcache"
	"github.com/lkc-technologies/fwact/internal/logging"
	"github.com/lkc-technologies/fwact/internal/manifest"
)

func main() {
	var (
		manifestPath = pflag.String("manifest", "", "path to the firmware manifest (HuJSON)")
		archivePath  = pflag.String("archive", "", "path to the resource archive (length-prefixed chunks)")
		outputPath   = pflag.String("output", "", "path to the output image or block device")
		eventName    = pflag.String("event", "", "name of the single event to apply (default: every declared event)")
		unsafe       = pflag.Bool("unsafe", false, "allow path_write, pipe_write and execute")
		verbose      = pflag.Bool("v", false, "verbose logging")
		atomicCommit = pflag.Bool("atomic", false, "stage output in a temp file and commit it atomically on success")
	)
	pflag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	if *manifestPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "fwapply: -manifest and -output are required")
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(*manifestPath, *archivePath, *outputPath, *eventName, *unsafe, *atomicCommit, logger); err != nil {
		logger.Error("apply failed", "error", err)
		os.Exit(1)
	}
	logger.Info("apply complete")
}

func run(manifestPath, archivePath, outputPath, eventName string, unsafeOK, commitAtomic bool, logger *logging.Logger) error {
	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	tree, err := manifest.Parse(manifestBytes)
	if err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}

	writePath := outputPath
	if commitAtomic {
		writePath = outputPath + ".fwapply-tmp"
	}

	destFile, err := os.OpenFile(writePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer destFile.Close()

	info, err := destFile.Stat()
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	cache := blockcache.New(destFile, info.Size())

	var archiveFile *os.File
	if archivePath != "" {
		archiveFile, err = os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer archiveFile.Close()
	}

	events := []string{eventName}
	if eventName == "" {
		events = tree.EventNames()
	}

	progress := fwact.NewProgress(fwact.NoOpObserver{})
	options := fwact.ApplyOptions{AllowUnsafe: unsafeOK}

	for _, name := range events {
		eventActions, ok := tree.Actions(name)
		if !ok {
			return fmt.Errorf("no such event %q", name)
		}

		ctx := &fwact.Context{
			Kind:     fwact.KindGlobal,
			Cfg:      tree,
			Output:   cache,
			Logger:   logger.ForAction(name),
			Progress: progress,
			Options:  options,
		}

		if _, ok := tree.Section("file-resource", name); ok {
			ctx.Kind = fwact.KindFile
			ctx.Event = &fwact.Event{Title: name}
			sec, _ := tree.Section("file-resource", name)
			m, ok := tree.SparseMap(sec)
			if !ok {
				return fmt.Errorf("event %q: file-resource has no sparse map", name)
			}
			if archiveFile == nil {
				return fmt.Errorf("event %q: binds a file-resource but no -archive was given", name)
			}
			frameLen, err := archive.FrameLen(archiveFile)
			if err != nil {
				return fmt.Errorf("event %q: reading archive frame: %w", name, err)
			}
			reader := archive.New(io.LimitReader(archiveFile, frameLen), m)
			ctx.Read = reader.Read
		}

		if err := fwact.Validate(ctx, eventActions); err != nil {
			return fmt.Errorf("event %q: validate: %w", name, err)
		}
		if err := fwact.ComputeProgress(ctx, eventActions); err != nil {
			return fmt.Errorf("event %q: compute_progress: %w", name, err)
		}
		logger.Info("applying event", "event", name, "total_units", progress.TotalUnits())
		if err := fwact.Run(ctx, eventActions); err != nil {
			return fmt.Errorf("event %q: run: %w", name, err)
		}
	}

	if err := cache.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	if commitAtomic {
		if err := destFile.Close(); err != nil {
			return fmt.Errorf("closing staged output: %w", err)
		}
		staged, err := os.Open(writePath)
		if err != nil {
			return fmt.Errorf("reopening staged output: %w", err)
		}
		defer staged.Close()
		defer os.Remove(writePath)
		if err := atomic.WriteFile(outputPath, staged); err != nil {
			return fmt.Errorf("committing output: %w", err)
		}
	}

	return nil
}
