package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/engine/assets"
	"github.com/robalobadob/wordle/engine/internal/cli"
	"github.com/robalobadob/wordle/engine/internal/config"
	"github.com/robalobadob/wordle/engine/internal/game"
	"github.com/robalobadob/wordle/engine/internal/history"
	"github.com/robalobadob/wordle/engine/internal/httpserver"
	"github.com/robalobadob/wordle/engine/internal/store"
	"github.com/robalobadob/wordle/engine/internal/words"
)

var configPath string

const sweepInterval = 5 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("wordle exited")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wordle",
		Short:         "Wordle engine: HTTP server, terminal game and scorer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $WORDLE_CONFIG)")
	root.AddCommand(newServeCmd(), newPlayCmd(), newCheckCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			list, err := words.Load(cfg.WordsFile)
			if err != nil {
				return err
			}
			db, err := history.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := history.Migrate(db, assets.Migrations()); err != nil {
				return err
			}

			srv := httpserver.New(httpserver.Options{
				Config: cfg,
				Store:  store.NewMemoryStore(),
				DB:     db,
				Words:  list,
			})
			hs := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info().Str("port", cfg.Port).Int("words", list.Len()).Bool("strict", cfg.StrictWords).Msg("starting wordle server")
				if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				srv.RunSweeper(gctx, sweepInterval, cfg.SessionIdle)
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return hs.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			list, err := words.Load(cfg.WordsFile)
			if err != nil {
				return err
			}
			e, err := game.NewEngine(game.WithWordList(list), game.WithMaxAttempts(cfg.MaxAttempts))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Guess the %d-letter word in %d tries.\n", e.WordLength(), e.MaxAttempts())
			return cli.Play(cmd.Context(), e, cmd.InOrStdin(), cli.TextDisplay{W: cmd.OutOrStdout()})
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check SECRET GUESS",
		Short: "Score one guess against a secret and print GUESS:FEEDBACK",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := game.NewEngine(game.WithSecret(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.CheckGuess(args[1]).String())
			return nil
		},
	}
}
