package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/dedupnorris/pkg/config"
	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
)

// isolate resets global flags and points --config at a fresh default file
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.SaveToFile(config.Default(), path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	globalFlags = GlobalFlags{ConfigFile: path}
	t.Cleanup(func() { globalFlags = GlobalFlags{} })
	return path
}

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestValidateArgs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dest := filepath.Join(root, "dest")
	file := filepath.Join(root, "file.jpg")
	mkfile(t, filepath.Join(src, "a.jpg"), "a")
	mkfile(t, file, "x")
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mode    models.RunMode
		args    []string
		flags   RunFlags
		wantErr string
	}{
		{"Valid", models.ModeDedupeFlat, []string{src, dest}, RunFlags{}, ""},
		{"SourceOnly", models.ModeAuditSidecars, []string{src}, RunFlags{}, ""},
		{"MissingSource", models.ModeAuditSidecars, []string{filepath.Join(root, "nope")}, RunFlags{}, "does not exist"},
		{"SourceIsFile", models.ModeCrossFolderAudit, []string{file}, RunFlags{}, "not a directory"},
		{"DestIsFile", models.ModeDedupeFlat, []string{src, file}, RunFlags{}, "not a directory"},
		{"MissingDest", models.ModeReorganize, []string{src, filepath.Join(root, "new")}, RunFlags{}, "--create-dest"},
		{"SameDirs", models.ModeDedupeFlat, []string{src, src}, RunFlags{}, "cannot be the same"},
		{"DestInsideSource", models.ModeDedupeFlat, []string{src, filepath.Join(src, "out")}, RunFlags{CreateDest: true}, "inside source"},
		{"SourceInsideDest", models.ModeDedupeFlat, []string{src, root}, RunFlags{}, "inside destination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateArgs(tt.mode, tt.args, &tt.flags)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateArgs() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateArgs() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	t.Run("NotADirectoryKind", func(t *testing.T) {
		err := validateArgs(models.ModeAuditSidecars, []string{file}, &RunFlags{})
		if !errors.Is(err, models.ErrNotADirectory) {
			t.Errorf("validateArgs() error = %v, want ErrNotADirectory", err)
		}
	})

	t.Run("CreateDestDefersCreation", func(t *testing.T) {
		created := filepath.Join(root, "created", "nested")
		if err := validateArgs(models.ModeDedupeFlat, []string{src, created}, &RunFlags{CreateDest: true}); err != nil {
			t.Fatalf("validateArgs() error = %v", err)
		}
		if _, err := os.Stat(created); !os.IsNotExist(err) {
			t.Error("validation alone must not create the destination")
		}

		op := &models.RunOperation{Mode: models.ModeDedupeFlat, DestPath: created}
		if err := createDestination(op, &RunFlags{CreateDest: true}); err != nil {
			t.Fatalf("createDestination() error = %v", err)
		}
		if info, err := os.Stat(created); err != nil || !info.IsDir() {
			t.Error("destination should be created")
		}
	})
}

func TestApplyFlagsToConfig(t *testing.T) {
	t.Run("Overrides", func(t *testing.T) {
		isolate(t)
		globalFlags.Output = "json"
		globalFlags.Quiet = true
		globalFlags.LogLevel = "debug"

		cfg := config.Default()
		err := applyFlagsToConfig(cfg, &RunFlags{
			Parallel:         3,
			Hash:             "murmur3",
			Bandwidth:        "10M",
			ExcludeExt:       []string{"json", "mp"},
			SkipNameContains: []string{"-edited"},
			SuffixPolicy:     "rest",
			CopyFallback:     true,
			Verify:           true,
			AbortOnError:     true,
			GracePeriod:      "2s",
			FailureFormat:    "json",
		})
		if err != nil {
			t.Fatalf("applyFlagsToConfig() error = %v", err)
		}

		if cfg.Performance.MaxWorkers != 3 || cfg.Hash.Algorithm != models.HashMurmur3 {
			t.Errorf("Performance = %+v, Hash = %+v", cfg.Performance, cfg.Hash)
		}
		if cfg.Move.SuffixPolicy != models.SuffixRest || !cfg.Move.CopyFallback {
			t.Errorf("Move = %+v", cfg.Move)
		}
		if !cfg.Classify.VerifyBeforeDelete {
			t.Error("--verify should enable verify_before_delete")
		}
		if !cfg.Performance.AbortOnError || cfg.Performance.GracePeriod != 2*time.Second {
			t.Errorf("Performance = %+v", cfg.Performance)
		}
		if len(cfg.Scan.ExcludeExtensions) != 2 || cfg.Scan.SkipNameContains[0] != "-edited" {
			t.Errorf("Scan = %+v", cfg.Scan)
		}
		if cfg.Output.Format != "json" || cfg.Output.Progress || !cfg.Output.Quiet {
			t.Errorf("Output = %+v", cfg.Output)
		}
		if cfg.Logging.Level != "debug" || cfg.Report.FailureFormat != "json" {
			t.Errorf("Logging = %+v, Report = %+v", cfg.Logging, cfg.Report)
		}
	})

	t.Run("KeepsConfigWithoutFlags", func(t *testing.T) {
		isolate(t)
		cfg := config.Default()
		cfg.Performance.MaxWorkers = 12
		if err := applyFlagsToConfig(cfg, &RunFlags{}); err != nil {
			t.Fatalf("applyFlagsToConfig() error = %v", err)
		}
		if cfg.Performance.MaxWorkers != 12 || cfg.Hash.Algorithm != models.HashMD5 {
			t.Errorf("config values should survive unset flags: %+v", cfg)
		}
	})

	tests := []struct {
		name  string
		flags RunFlags
	}{
		{"UnknownHash", RunFlags{Hash: "crc32"}},
		{"BadSuffixPolicy", RunFlags{SuffixPolicy: "first"}},
		{"BadBandwidth", RunFlags{Bandwidth: "fast"}},
		{"BadGracePeriod", RunFlags{GracePeriod: "soon"}},
		{"BadPattern", RunFlags{InternalPattern: "(["}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			err := applyFlagsToConfig(config.Default(), &tt.flags)
			if !errors.Is(err, models.ErrInvalidArgument) {
				t.Errorf("applyFlagsToConfig() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestCreateOperation(t *testing.T) {
	cfg := config.Default()
	cfg.Performance.Bandwidth = "1MiB"
	cfg.Report.Path = "out.txt"

	op, err := createOperation(cfg, models.ModeReorganize, []string{"src", "dest"}, &RunFlags{DryRun: true})
	if err != nil {
		t.Fatalf("createOperation() error = %v", err)
	}
	if op.ID == "" || op.DestPath != "dest" || !op.DryRun || op.BandwidthLimit != 1024*1024 || op.ReportPath != "out.txt" {
		t.Errorf("operation = %+v", op)
	}

	op, err = createOperation(cfg, models.ModeCrossFolderPurge, []string{"src"}, &RunFlags{})
	if err != nil || op.DestPath != "" {
		t.Errorf("createOperation() = %+v, %v", op, err)
	}
}

func TestCreateLogger(t *testing.T) {
	cfg := config.Default().Logging

	logger, err := createLogger(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := logger.(*logging.NullLogger); !ok {
		t.Errorf("createLogger() = %T, want NullLogger without log file", logger)
	}

	logger, _ = createLogger(cfg, true)
	if _, ok := logger.(*logging.ConsoleLogger); !ok {
		t.Errorf("createLogger() = %T, want ConsoleLogger with --verbose", logger)
	}

	cfg.File = filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err = createLogger(cfg, true)
	if err != nil {
		t.Fatalf("createLogger() error = %v", err)
	}
	defer logger.Close()
	if _, ok := logger.(*logging.FileLogger); !ok {
		t.Errorf("createLogger() = %T, want FileLogger with a log file", logger)
	}
}

func TestExecute(t *testing.T) {
	t.Run("DedupeFlatJSON", func(t *testing.T) {
		isolate(t)
		globalFlags.Output = "json"

		root := t.TempDir()
		src, dest := filepath.Join(root, "src"), filepath.Join(root, "dest")
		mkfile(t, filepath.Join(src, "a", "x.jpg"), "same")
		mkfile(t, filepath.Join(src, "b", "x.jpg"), "same")
		mkfile(t, filepath.Join(src, "b", "x.jpg.json"), "{}")

		var stdout bytes.Buffer
		report, err := execute(context.Background(), models.ModeDedupeFlat, []string{src, dest}, &RunFlags{CreateDest: true}, &stdout)
		if err != nil {
			t.Fatalf("execute() error = %v", err)
		}
		if report.Status != models.StatusSuccess || report.Stats.FilesMoved != 1 || report.Stats.Duplicates != 1 {
			t.Errorf("report = %+v", report.Stats)
		}
		if _, err := os.Stat(filepath.Join(dest, "x.jpg")); err != nil {
			t.Errorf("x.jpg not moved: %v", err)
		}

		var doc map[string]interface{}
		if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
			t.Fatalf("stdout is not a JSON document: %v\n%s", err, stdout.String())
		}
		if doc["mode"] != "dedupe-flat" || doc["status"] != "success" {
			t.Errorf("document = %v", doc)
		}
	})

	t.Run("CrossFolderAuditWithFailureReport", func(t *testing.T) {
		isolate(t)
		globalFlags.Quiet = true

		src := t.TempDir()
		mkfile(t, filepath.Join(src, "Photos from 2020", "a.jpg"), "a")
		mkfile(t, filepath.Join(src, "Trip", "a.jpg"), "a")
		mkfile(t, filepath.Join(src, "Trip", "b.jpg"), "b")

		out := t.TempDir()
		flags := &RunFlags{
			Report:        filepath.Join(out, "only.txt"),
			FailureReport: filepath.Join(out, "failures.txt"),
		}
		report, err := execute(context.Background(), models.ModeCrossFolderAudit, []string{src}, flags, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("execute() error = %v", err)
		}
		if report.Stats.OnlyExternal != 1 || report.Stats.PresentInBoth != 1 {
			t.Errorf("Stats = %+v", report.Stats)
		}
		data, err := os.ReadFile(flags.Report)
		if err != nil {
			t.Fatalf("path report missing: %v", err)
		}
		if strings.TrimSpace(string(data)) != filepath.Join(src, "Trip", "b.jpg") {
			t.Errorf("path report = %q", data)
		}
		if _, err := os.Stat(flags.FailureReport); !os.IsNotExist(err) {
			t.Error("no failure report should be written for a clean run")
		}
	})

	t.Run("RejectedRunCreatesNothing", func(t *testing.T) {
		isolate(t)
		root := t.TempDir()
		src, dest := filepath.Join(root, "src"), filepath.Join(root, "dest")
		mkfile(t, filepath.Join(src, "a.jpg"), "a")

		_, err := execute(context.Background(), models.ModeDedupeFlat, []string{src, dest},
			&RunFlags{CreateDest: true, Hash: "crc32"}, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "invalid options") {
			t.Fatalf("execute() error = %v, want invalid options", err)
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("destination must not be created for a rejected run")
		}
	})

	t.Run("InterruptedDuringScan", func(t *testing.T) {
		isolate(t)
		globalFlags.Quiet = true
		src := t.TempDir()
		mkfile(t, filepath.Join(src, "Trip", "a.jpg"), "a")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report, err := execute(ctx, models.ModeCrossFolderAudit, []string{src},
			&RunFlags{Report: filepath.Join(t.TempDir(), "only.txt")}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("execute() error = %v, want a cancelled report", err)
		}
		if report.Status != models.StatusCancelled || report.Status.ExitCode() != 4 {
			t.Errorf("Status = %s, want cancelled (exit 4)", report.Status)
		}
	})

	t.Run("SetupErrors", func(t *testing.T) {
		isolate(t)
		_, err := execute(context.Background(), models.ModeAuditSidecars, []string{filepath.Join(t.TempDir(), "missing")}, &RunFlags{}, &bytes.Buffer{})
		if err == nil {
			t.Error("execute() should fail for a missing source")
		}

		globalFlags.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err = execute(context.Background(), models.ModeAuditSidecars, []string{t.TempDir()}, &RunFlags{}, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "failed to load config") {
			t.Errorf("execute() error = %v, want config load failure", err)
		}
	})
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		cmd  func() *cobra.Command
		args []string
	}{
		{"ReorganizeNeedsTwo", NewReorganizeCommand, []string{"only-source"}},
		{"DedupeFlatNeedsTwo", NewDedupeFlatCommand, []string{}},
		{"AuditTakesOne", NewAuditSidecarsCommand, []string{"a", "b"}},
		{"PurgeTakesOne", NewCrossFolderPurgeCommand, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			cmd := tt.cmd()
			cmd.SetArgs(tt.args)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetOut(&bytes.Buffer{})
			if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "arg") {
				t.Errorf("Execute() error = %v, want argument count error", err)
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	globalFlags = GlobalFlags{ConfigFile: path}
	t.Cleanup(func() { globalFlags = GlobalFlags{} })

	var out bytes.Buffer
	cmd := NewConfigCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := config.LoadFromFile(path); err != nil {
		t.Errorf("created config does not load: %v", err)
	}

	cmd = NewConfigCommand()
	cmd.SetArgs([]string{"init"})
	if err := cmd.Execute(); err == nil {
		t.Error("config init should refuse to overwrite without --force")
	}

	out.Reset()
	cmd = NewConfigCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out.String(), "Suffix Policy: all") || !strings.Contains(out.String(), "Bandwidth: unlimited") {
		t.Errorf("config show output = %q", out.String())
	}
}
