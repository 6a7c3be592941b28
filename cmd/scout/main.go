package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/statiq/scout/internal/adapters/searchapi"
	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/internal/app"
	"github.com/statiq/scout/internal/config"
	"github.com/statiq/scout/internal/domain/follow"
	"github.com/statiq/scout/internal/domain/identity"
	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/internal/domain/query"
	"github.com/statiq/scout/internal/domain/recency"
	"github.com/statiq/scout/internal/domain/vote"
	"github.com/statiq/scout/pkg/logger"
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// On-device store: badger when a data dir is configured, memory otherwise.
	var store storage.Store
	if cfg.DataDir != "" {
		bs, err := storage.NewBadgerStore(storage.WithDataDir(cfg.DataDir))
		if err != nil {
			os.Stderr.WriteString("failed to open store: " + err.Error() + "\n")
			return
		}
		store = bs
	} else {
		log.Info(ctx, "no data_dir configured, using in-memory store")
		store = storage.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing store failed", logger.Error(err))
		}
	}()

	api := searchapi.New(cfg.APIBaseURL,
		searchapi.WithTimeout(cfg.RequestTimeout()),
		searchapi.WithLogger(logger.Named("searchapi")),
	)

	pipeline := query.New(api,
		query.WithDebounce(cfg.Debounce()),
		query.WithTimeout(cfg.SearchTimeout()),
		query.WithLogger(logger.Named("query")),
	)

	recent := recency.New(store,
		recency.WithCapacity(cfg.RecencyCapacity),
		recency.WithLogger(logger.Named("recency")),
	)

	votes := vote.New(store, vote.WithLogger(logger.Named("vote")))
	follows := follow.New(store, follow.WithLogger(logger.Named("follow")))
	issuer := identity.New(store, identity.WithLogger(logger.Named("identity")))

	session := app.New(pipeline, recent,
		app.WithEnricher(api),
		app.WithIdentity(issuer),
		app.WithVotes(votes),
		app.WithLogger(log),
	)
	defer session.Close()

	log.Info(ctx, "scout ready",
		logger.String("api_base_url", cfg.APIBaseURL),
		logger.String("device_id", session.DeviceID(ctx)),
	)

	// Print each visible-state update as it lands.
	go func() {
		for snap := range session.Updates() {
			printSnapshot(snap)
		}
	}()

	repl(ctx, session, follows)
}

// repl reads stdin line by line. Lines starting with ":" are commands;
// anything else is fed to the pipeline as the current search input.
func repl(ctx context.Context, session *app.Session, follows *follow.Store) {
	fmt.Println(`type to search; :recent :forget <id> :clear :vote <game> <home|away> :votes <game...> :follow <team|player> <id> :following <teams|players> :quit`)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !strings.HasPrefix(line, ":") {
				session.SetInput(ctx, line)
				continue
			}
			if line == ":quit" {
				return
			}
			runCommand(ctx, session, follows, strings.Fields(line))
		}
	}
}

func runCommand(ctx context.Context, session *app.Session, follows *follow.Store, args []string) {
	switch args[0] {
	case ":recent":
		for i, e := range session.Recent(ctx) {
			fmt.Printf("%2d. [%s] %s (%s) %s\n", i+1, e.Kind, e.Name, e.ID, e.Recorded().Format("2006-01-02 15:04"))
		}
	case ":forget":
		if len(args) != 2 {
			fmt.Println("usage: :forget <id>")
			return
		}
		if err := session.ForgetRecent(ctx, args[1]); err != nil {
			fmt.Println("forget failed:", err)
		}
	case ":clear":
		if err := session.ClearRecent(ctx); err != nil {
			fmt.Println("clear failed:", err)
		}
	case ":vote":
		if len(args) != 3 {
			fmt.Println("usage: :vote <game> <home|away>")
			return
		}
		choice, err := model.ParseChoice(args[2])
		if err != nil {
			fmt.Println(err)
			return
		}
		if err := session.Vote(ctx, args[1], choice); err != nil {
			fmt.Println("vote failed:", err)
		}
	case ":votes":
		for game, choice := range session.VotesFor(ctx, args[1:]) {
			fmt.Printf("%s: %s\n", game, choice)
		}
	case ":follow":
		if len(args) != 3 {
			fmt.Println("usage: :follow <team|player> <id>")
			return
		}
		kind := model.EntityKind(args[1])
		following, err := follows.Toggle(ctx, kind, args[2])
		if err != nil {
			fmt.Println("follow failed:", err)
			return
		}
		fmt.Printf("%s %s: following=%v\n", kind, args[2], following)
	case ":following":
		if len(args) != 2 {
			fmt.Println("usage: :following <teams|players>")
			return
		}
		kind := model.KindTeam
		if args[1] == "players" {
			kind = model.KindPlayer
		}
		for _, id := range follows.List(ctx, kind) {
			fmt.Println(id)
		}
	default:
		fmt.Println("unknown command:", args[0])
	}
}

func printSnapshot(snap query.Snapshot) {
	switch {
	case snap.Loading:
		fmt.Printf("searching %q...\n", snap.Query)
	case snap.Query == "":
		fmt.Println("(idle)")
	case len(snap.Results) == 0:
		fmt.Printf("no results for %q\n", snap.Query)
	default:
		fmt.Printf("results for %q:\n", snap.Query)
		for _, r := range snap.Results {
			switch r.Kind {
			case model.KindTeam:
				fmt.Printf("  [team]   %s (%s) %s %s\n", r.Name, r.ID, r.Mascot, r.Record)
			case model.KindPlayer:
				fmt.Printf("  [player] %s (%s) #%s %s, %s\n", r.Name, r.ID, r.Number, r.Position, r.Team)
			}
		}
	}
}
