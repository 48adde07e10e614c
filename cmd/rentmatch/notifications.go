package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strob0t/RentMatch/internal/adapter/apiclient"
	"github.com/Strob0t/RentMatch/internal/scheduler"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect a user's notifications through the API",
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Poll the unread notification count until interrupted",
		RunE:  runWatch,
	}
	f := watch.Flags()
	f.String("server", "http://localhost:8080", "API base URL")
	f.String("token", "", "bearer token (default $RENTMATCH_API_TOKEN)")
	f.String("dev-user", "", "act as this user id when server auth is disabled")
	f.String("dev-role", "renter", "role for --dev-user")
	f.Duration("interval", 30*time.Second, "poll interval")
	f.Bool("list", false, "print unread notifications when the count rises")

	cmd.AddCommand(watch)
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	server, _ := f.GetString("server")
	token, _ := f.GetString("token")
	devUser, _ := f.GetString("dev-user")
	devRole, _ := f.GetString("dev-role")
	interval, _ := f.GetDuration("interval")
	showList, _ := f.GetBool("list")

	if interval < time.Second {
		return fmt.Errorf("--interval must be at least 1s")
	}
	if token == "" {
		token = os.Getenv("RENTMATCH_API_TOKEN")
	}

	opts := []apiclient.Option{apiclient.WithToken(func() string { return token })}
	if devUser != "" {
		opts = append(opts, apiclient.WithDevPrincipal(devUser, devRole))
	}
	client := apiclient.New(server, opts...)
	out := cmd.OutOrStdout()

	var last atomic.Int64
	last.Store(-1)
	poll := func(ctx context.Context) error {
		n, err := client.UnreadCount(ctx)
		if err != nil {
			return err
		}
		prev := last.Swap(int64(n))
		if prev == int64(n) {
			return nil
		}
		fmt.Fprintf(out, "%s unread: %d\n", time.Now().Format(time.TimeOnly), n)
		if showList && prev >= 0 && int64(n) > prev {
			list, err := client.Notifications(ctx, n-int(prev), true)
			if err != nil {
				return err
			}
			for _, item := range list {
				fmt.Fprintf(out, "  - %s: %s (%s)\n", item.Title, item.Message, item.ActionURL)
			}
		}
		return nil
	}

	sched := scheduler.New(slog.Default())
	if err := sched.Add("unread-poll", "@every "+interval.String(), interval, poll); err != nil {
		return err
	}
	sched.Start()
	if err := sched.Trigger("unread-poll"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}
