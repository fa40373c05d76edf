package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fakeyudi/hats/internal/fakeservice"
	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/log"
)

type mockOptions struct {
	addr        string
	polls       int
	jobError    string
	resultError string
	only        []string
	delay       time.Duration
	rateLimit   int
}

var mockOpts mockOptions

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve an in-memory analysis service for local testing",
	Long: `Serve a fake analysis service under /api. Sessions advance one step per
progress request and return canned perspective results, so the client can be
exercised without the real service.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := fakeservice.Options{
			PollsUntilDone: mockOpts.polls,
			JobError:       mockOpts.jobError,
			ResultError:    mockOpts.resultError,
			Delay:          mockOpts.delay,
		}
		for _, name := range mockOpts.only {
			p, ok := hats.Parse(name)
			if !ok {
				return fmt.Errorf("unknown perspective %q", name)
			}
			opts.Perspectives = append(opts.Perspectives, p)
		}

		ln, err := net.Listen("tcp", mockOpts.addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", mockOpts.addr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serveMock(ctx, ln, fakeservice.New(opts), mockOpts.rateLimit, cmd.OutOrStdout())
	},
}

// serveMock serves svc under /api on ln until ctx is cancelled. A positive
// perMinute throttles each client IP to that many requests per minute.
func serveMock(ctx context.Context, ln net.Listener, svc *fakeservice.Service, perMinute int, out io.Writer) error {
	logger := log.WithComponent("mock-server")

	r := chi.NewRouter()
	if perMinute > 0 {
		r.Use(httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"detail":"Too many requests. Please try again later."}`))
			}),
		))
	}
	r.Mount("/api", svc.Handler())
	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(out, "Mock analysis service listening on http://%s/api\n", ln.Addr())
	logger.Info().Str("addr", ln.Addr().String()).Msg("mock server started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	logger.Info().Err(err).Msg("mock server stopped")
	return err
}

func init() {
	f := mockServerCmd.Flags()
	f.StringVar(&mockOpts.addr, "addr", "127.0.0.1:8000", "listen address")
	f.IntVar(&mockOpts.polls, "polls", 3, "progress requests before a job finishes")
	f.StringVar(&mockOpts.jobError, "job-error", "", "fail every job with this message")
	f.StringVar(&mockOpts.resultError, "result-error", "", "attach this error message to results")
	f.StringSliceVar(&mockOpts.only, "only", nil, "perspectives that produce results (default all six)")
	f.DurationVar(&mockOpts.delay, "delay", 0, "delay added to every response")
	f.IntVar(&mockOpts.rateLimit, "rate-limit", 0, "requests per minute allowed per client IP (0 for unlimited)")
	rootCmd.AddCommand(mockServerCmd)
}
