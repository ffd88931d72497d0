package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sqliteadapter "github.com/atvirokodosprendimai/realmforge/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/realmforge/internal/adapters/http"
	llmadapter "github.com/atvirokodosprendimai/realmforge/internal/adapters/llm"
	rpcadapter "github.com/atvirokodosprendimai/realmforge/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/realmforge/internal/application"
	"github.com/atvirokodosprendimai/realmforge/internal/domain"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const demoUsername = "demo_user"

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "realmforge",
		Usage: "AI-driven MUD server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			statusCommand(),
			worldsCommand(),
			characterCommand(),
			playCommand(),
			dialogueCommand(),
			configCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, ":8080", "/tmp/realmforge.sock", "realmforge.db")
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Value: "/tmp/realmforge.sock", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Value: "realmforge.db", Usage: "SQLite database path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("addr"), c.String("rpc-socket"), c.String("db-path"))
		},
	}
}

func runServer(ctx context.Context, addr, rpcSocket, dbPath string) error {
	_ = godotenv.Load()

	db, err := sqliteadapter.Open(dbPath)
	if err != nil {
		return err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}

	var generator domain.TextGenerator
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		log.Printf("GEMINI_API_KEY is not set, narrative commands are disabled")
	} else {
		gemini, err := llmadapter.NewGeminiGenerator(ctx, llmadapter.Config{
			APIKey: apiKey,
			Model:  os.Getenv("GEMINI_MODEL"),
		})
		if err != nil {
			return err
		}
		defer func() { _ = gemini.Close() }()
		generator = gemini
	}

	repo := sqliteadapter.NewGameRepository(db)
	service := application.NewGameService(repo, generator)
	user, err := service.EnsureUser(ctx, demoUsername, "demo")
	if err != nil {
		return err
	}

	router := httpadapter.NewRouter(service, user.ID)
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(rpcSocket, service, user.ID)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Printf("json-rpc listening on unix://%s", rpcSocket)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show game server status",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out gameStatusPayload
			if err := doStatus(ctx, cfg, &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printGameStatus(out)
			return nil
		},
	}
}

func worldsCommand() *cli.Command {
	return &cli.Command{
		Name:  "worlds",
		Usage: "World commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List worlds",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.World
					if err := doWorldsList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWorlds(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Create world",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.World
					if err := doWorldsCreate(ctx, cfg, c.String("name"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWorlds([]domain.World{out})
					return nil
				},
			},
			{
				Name:  "touch",
				Usage: "Mark world as played now",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "world-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.World
					if err := doWorldsTouch(ctx, cfg, c.Uint("world-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printWorlds([]domain.World{out})
					return nil
				},
			},
			{
				Name:  "connections",
				Usage: "Manage node connections",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List node connections in a world",
						Flags: []cli.Flag{
							&cli.UintFlag{Name: "world-id", Required: true},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadConfig()
							if err != nil {
								return err
							}
							var out []application.ConnectionView
							if err := doConnectionsList(ctx, cfg, c.Uint("world-id"), &out); err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printConnections(out)
							return nil
						},
					},
					{
						Name:  "create",
						Usage: "Connect two nodes with a spatial offset",
						Flags: []cli.Flag{
							&cli.UintFlag{Name: "world-id", Required: true},
							&cli.UintFlag{Name: "node-a", Required: true},
							&cli.UintFlag{Name: "node-b", Required: true},
							&cli.IntFlag{Name: "dx"},
							&cli.IntFlag{Name: "dy"},
							&cli.IntFlag{Name: "dz"},
							&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							cfg, err := loadConfig()
							if err != nil {
								return err
							}
							var out connectionPayload
							err = doConnectionsCreate(ctx, cfg, c.Uint("world-id"), c.Uint("node-a"), c.Uint("node-b"), c.Int("dx"), c.Int("dy"), c.Int("dz"), &out)
							if err != nil {
								return err
							}
							if c.Bool("json") {
								return printJSON(out)
							}
							printConnections([]application.ConnectionView{{NodeConnection: out.Connection, Direction: out.Direction}})
							return nil
						},
					},
				},
			},
		},
	}
}

func characterCommand() *cli.Command {
	return &cli.Command{
		Name:  "character",
		Usage: "Character commands",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the player character in a world, creating it on first contact",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "world-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out playerCharacterPayload
					if err := doPlayerCharacter(ctx, cfg, c.Uint("world-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printCharacter(out.Character, out.Created)
					return nil
				},
			},
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Run a game command in a world",
		ArgsUsage: "<command text>",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "world-id", Required: true},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			command := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if command == "" {
				return fmt.Errorf("command text is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out commandPayload
			if err := doCommandRun(ctx, cfg, c.Uint("world-id"), command, &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			fmt.Println(out.Response)
			return nil
		},
	}
}

func dialogueCommand() *cli.Command {
	return &cli.Command{
		Name:  "dialogue",
		Usage: "Dialogue log commands",
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "Show dialogue history in a world",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "world-id", Required: true},
					&cli.IntFlag{Name: "limit", Value: 100},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.DialogueEntry
					if err := doDialogueHistory(ctx, cfg, c.Uint("world-id"), c.Int("limit"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printDialogue(out)
					return nil
				},
			},
			{
				Name:  "log",
				Usage: "Append a dialogue entry",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "world-id", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
					&cli.BoolFlag{Name: "input", Usage: "mark the entry as player input"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.DialogueEntry
					if err := doDialogueLog(ctx, cfg, c.Uint("world-id"), c.Bool("input"), c.String("text"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printDialogue([]domain.DialogueEntry{out})
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Clear dialogue history in a world",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "world-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out clearedPayload
					if err := doDialogueClear(ctx, cfg, c.Uint("world-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					fmt.Printf("deleted %d entries\n", out.Deleted)
					return nil
				},
			},
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage CLI connection settings",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Set transport, server URL or socket path",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Usage: "HTTP server base URL"},
					&cli.StringFlag{Name: "socket", Usage: "unix socket path"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if c.IsSet("transport") {
						cfg.Transport = c.String("transport")
					}
					if c.IsSet("server") {
						cfg.Server = c.String("server")
					}
					if c.IsSet("socket") {
						cfg.Socket = c.String("socket")
					}
					if err := saveConfig(cfg); err != nil {
						return err
					}
					printKV([][2]string{{"transport", cfg.Transport}, {"server", cfg.Server}, {"socket", cfg.Socket}})
					return nil
				},
			},
		},
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
