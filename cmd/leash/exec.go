package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/aretw0/leash"
	httpAdapter "github.com/aretw0/leash/internal/adapters/http"
	"github.com/aretw0/leash/internal/adapters/memory"
	"github.com/aretw0/leash/internal/logging"
	"github.com/aretw0/leash/pkg/observability"
	"github.com/aretw0/leash/pkg/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// timeoutExitCode matches the convention of timeout(1).
const timeoutExitCode = 124

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- command [args...]",
	Short: "Run a command with a time budget",
	Long: `Runs a command as a bounded callable. On timeout the command's process
is killed via its context and leash exits with code 124. Note the usual hazard:
a child that spawns detached grandchildren may leave them running.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		grace, _ := cmd.Flags().GetDuration("grace")
		policyPath, _ := cmd.Flags().GetString("policy")
		op, _ := cmd.Flags().GetString("op")
		debugAddr, _ := cmd.Flags().GetString("debug-addr")
		levelName, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(logging.ParseLevel(levelName))

		if policyPath != "" {
			pol, err := policy.Load(policyPath)
			if err != nil {
				return err
			}
			if op == "" {
				op = args[0]
			}
			timeout = pol.For(op)
		}

		opts := []leash.Option{
			leash.WithLogger(logger),
			leash.WithGracePeriod(grace),
		}

		var debugSrv *http.Server
		if debugAddr != "" {
			promReg := prometheus.NewRegistry()
			registry := observability.NewRegistry(
				observability.WithMetrics(observability.NewMetrics(promReg)),
			)
			sink := memory.NewSink()
			opts = append(opts,
				leash.WithRegistry(registry),
				leash.WithEventSink(sink),
			)
			debugSrv = &http.Server{
				Addr:    debugAddr,
				Handler: httpAdapter.NewHandler(registry, sink, promReg),
			}
			go func() {
				logger.Info("debug server listening", "addr", debugAddr)
				if err := debugSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("debug server failed", "err", err)
				}
			}()
			defer debugSrv.Close()
		}

		supervisor := leash.New(opts...)

		name := args[0]
		rest := args[1:]
		run := func(ctx context.Context, _ []any, _ map[string]any) (any, error) {
			child := exec.CommandContext(ctx, name, rest...)
			child.Stdin = os.Stdin
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			return nil, child.Run()
		}

		_, err := supervisor.Run(timeout, run, nil, nil)

		var timedOut *leash.TimedOutError
		if errors.As(err, &timedOut) {
			fmt.Fprintf(os.Stderr, "leash: %s %v timed out after %s\n", name, rest, timedOut.TimedOutAfter)
			os.Exit(timeoutExitCode)
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				os.Exit(exitErr.ExitCode())
			}
			return err
		}
		return nil
	},
}

func init() {
	execCmd.Flags().Duration("timeout", 10*time.Second, "Time budget for the command")
	execCmd.Flags().Duration("grace", leash.DefaultGracePeriod, "Grace period after signalling a stop")
	execCmd.Flags().String("policy", "", "Path to a YAML timeout policy file")
	execCmd.Flags().String("op", "", "Operation name to look up in the policy (default: the command)")
	execCmd.Flags().String("debug-addr", "", "Address for the debug HTTP surface (e.g. :8089)")
	rootCmd.AddCommand(execCmd)
}
