package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livefir/formset"
	"github.com/livefir/formset/cmd/fsctl/internal/config"
	"github.com/livefir/formset/cmd/fsctl/internal/store"
)

// Serve handles `fsctl serve <definition.yaml> [addr]`: it renders the
// definition into a page and serves it through a live handler until
// interrupted
func Serve(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("definition file required: fsctl serve <definition.yaml> [addr]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Addr
	if len(args) > 1 {
		addr = args[1]
	}

	def, err := config.LoadDefinition(args[0])
	if err != nil {
		return err
	}

	var st *store.Store
	if cfg.Database != "" {
		st, err = store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()
		log.Printf("Storing submissions in %s", st.Path())
	}

	handler, err := NewServeMux(def, cfg, st)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving formset %q on http://%s", def.Prefix, addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// NewServeMux builds the routes of fsctl serve: the live page at "/" and
// a JSON metrics snapshot at "/metrics". Accepted submissions are logged
// and, when st is not nil, stored and listed at "/submissions".
func NewServeMux(def *formset.Definition, cfg *config.Config, st *store.Store) (*http.ServeMux, error) {
	page, err := renderPage(def, cfg, "/")
	if err != nil {
		return nil, err
	}

	opts := []formset.LiveOption{
		formset.WithFormsetOptions(formsetOptions(cfg)...),
		formset.WithSubmitHandler(func(subs map[string]*formset.Submission) error {
			for prefix, sub := range subs {
				log.Printf("SUBMIT: %s: %d active, %d deleted", prefix, len(sub.Active()), len(sub.Deleted()))
				if st == nil {
					continue
				}
				if _, err := st.Save(context.Background(), sub); err != nil {
					return err
				}
			}
			return nil
		}, true, true),
	}
	if cfg.Verbose {
		opts = append(opts, formset.WithLiveLogger(log.New(os.Stderr, "", log.LstdFlags)))
	}
	if !cfg.Minify {
		opts = append(opts, formset.WithMinifyDisabled())
	}

	live, err := formset.Mount(page, opts...)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/", live)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(struct {
			Metrics  interface{}      `json:"metrics"`
			Counters map[string]int64 `json:"counters"`
		}{
			Metrics:  live.Metrics().GetMetrics(),
			Counters: live.Metrics().GetCustomCounters(),
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	if st != nil {
		mux.HandleFunc("/submissions", func(w http.ResponseWriter, r *http.Request) {
			records, err := st.List(r.Context(), r.URL.Query().Get("prefix"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(records); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		})
	}
	return mux, nil
}
