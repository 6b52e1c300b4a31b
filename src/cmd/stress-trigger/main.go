package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"gpttrans/src/config"
	"gpttrans/src/singleinstance"
)

type stressOptions struct {
	n        int
	command  string
	port     int
	deadline time.Duration
}

type stressReport struct {
	Launched int
	OK       int32
	Absent   int32
	Failed   int32
	Elapsed  time.Duration
}

func (r stressReport) String() string {
	return fmt.Sprintf("launched=%d ok=%d absent=%d err=%d elapsed=%s", r.Launched, r.OK, r.Absent, r.Failed, r.Elapsed)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, os.Stdout)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-trigger",
		Short:         "Fire concurrent commands at the running GPTTrans",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runWithOptions(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, report)
			return nil
		},
	}

	rt, _ := config.LoadRuntime()
	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.command, "command", "trigger", "trigger|show")
	cmd.Flags().IntVar(&opts.port, "port", rt.InstancePort, "resident instance port")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func parseCommand(s string) (singleinstance.Command, error) {
	switch s {
	case "trigger":
		return singleinstance.CmdTrigger, nil
	case "show":
		return singleinstance.CmdShow, nil
	}
	return "", fmt.Errorf("unknown command %q (want trigger or show)", s)
}

func runWithOptions(ctx context.Context, opts stressOptions) (stressReport, error) {
	command, err := parseCommand(opts.command)
	if err != nil {
		return stressReport{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var wg sync.WaitGroup
	var okCount, absentCount, errCount int32

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			err := singleinstance.NewClient(opts.port).Send(ctx, command)
			switch {
			case err == nil:
				atomic.AddInt32(&okCount, 1)
			case errors.Is(err, singleinstance.ErrNoResident):
				atomic.AddInt32(&absentCount, 1)
			default:
				atomic.AddInt32(&errCount, 1)
			}
		}()
	}
	wg.Wait()

	return stressReport{
		Launched: opts.n,
		OK:       okCount,
		Absent:   absentCount,
		Failed:   errCount,
		Elapsed:  time.Since(start),
	}, nil
}
