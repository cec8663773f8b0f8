package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/Eroo144/instaclone/internal/adapters/http"
	"github.com/Eroo144/instaclone/internal/adapters/memstore"
	rpcadapter "github.com/Eroo144/instaclone/internal/adapters/rpcjson"
	"github.com/Eroo144/instaclone/internal/application"
	"github.com/Eroo144/instaclone/internal/domain"
	"github.com/Eroo144/instaclone/internal/realtime"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "instaclone",
		Usage: "Social graph server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			postsCommand(),
			feedCommand(),
			usersCommand(),
			notificationsCommand(),
			messagesCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, ":8080", "/tmp/instaclone.sock")
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
			&cli.StringFlag{Name: "rpc-socket", Value: "/tmp/instaclone.sock", Usage: "JSON-RPC unix socket path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("addr"), c.String("rpc-socket"))
		},
	}
}

func runServer(ctx context.Context, addr, rpcSocket string) error {
	store := memstore.New()
	hub := realtime.NewHub()
	service := application.NewSocialService(store, hub)

	router := httpadapter.NewServer(service, hub)
	srv := &http.Server{Addr: addr, Handler: router.Routes(), ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(rpcSocket, service)
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

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Register a new account and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds"},
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080"},
					&cli.StringFlag{Name: "socket", Value: "/tmp/instaclone.sock"},
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string      `json:"token"`
						User  domain.User `json:"user"`
					}
					err := doRegister(ctx, cfg, c.String("username"), c.String("email"), c.String("password"), &out)
					if err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("registered as %s\n", out.User.Username)
					return nil
				},
			},
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds"},
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080"},
					&cli.StringFlag{Name: "socket", Value: "/tmp/instaclone.sock"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string      `json:"token"`
						User  domain.User `json:"user"`
					}
					err := doLogin(ctx, cfg, c.String("email"), c.String("password"), &out)
					if err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.User.Username)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.User
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", out.ID}, {"username", out.Username}, {"email", out.Email}})
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Clear local CLI auth token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func postsCommand() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "Post commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a post",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caption"},
					&cli.StringFlag{Name: "media"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Post
					if err := doPostsCreate(ctx, cfg, c.String("caption"), c.String("media"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", out.ID}, {"author_id", out.AuthorID}, {"caption", out.Caption}})
					return nil
				},
			},
			{
				Name:  "like",
				Usage: "Toggle a like on a post",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "post-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Post
					if err := doPostsLike(ctx, cfg, c.String("post-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", out.ID}, {"likes", fmt.Sprintf("%d", len(out.Likes))}})
					return nil
				},
			},
			{
				Name:  "comment",
				Usage: "Comment on a post",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "post-id", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Comment
					if err := doPostsComment(ctx, cfg, c.String("post-id"), c.String("text"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", out.ID}, {"text", out.Text}})
					return nil
				},
			},
		},
	}
}

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Show the personalized feed",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out []domain.Post
			if err := doFeedList(ctx, cfg, &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printPosts(out)
			return nil
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "User commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List other users",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.User
					if err := doUsersList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printUsers(out)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Show a user by id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.User
					if err := doUsersGet(ctx, cfg, c.String("user-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{
						{"id", out.ID},
						{"username", out.Username},
						{"email", out.Email},
						{"followers", fmt.Sprintf("%d", len(out.Followers))},
						{"following", fmt.Sprintf("%d", len(out.Following))},
					})
					return nil
				},
			},
			{
				Name:  "follow",
				Usage: "Toggle following a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.FollowResult
					if err := doUsersFollow(ctx, cfg, c.String("user-id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{
						{"following", fmt.Sprintf("%t", out.Following)},
						{"followers_count", fmt.Sprintf("%d", out.FollowersCount)},
					})
					return nil
				},
			},
		},
	}
}

func notificationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "notifications",
		Usage: "Notification commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications, newest first",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Notification
					if err := doNotificationsList(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printNotifications(out)
					return nil
				},
			},
			{
				Name:  "read",
				Usage: "Mark a notification as read",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Notification
					if err := doNotificationsRead(ctx, cfg, c.String("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printNotifications([]domain.Notification{out})
					return nil
				},
			},
		},
	}
}

func messagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "Direct message commands",
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Send a direct message",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Required: true, Usage: "receiver user id"},
					&cli.StringFlag{Name: "text", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Message
					if err := doMessagesSend(ctx, cfg, c.String("to"), c.String("text"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{{"id", out.ID}, {"to", out.ReceiverID}, {"text", out.Text}})
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List a conversation, oldest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "peer", Required: true, Usage: "peer user id"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Message
					if err := doMessagesList(ctx, cfg, c.String("peer"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printMessages(out)
					return nil
				},
			},
		},
	}
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
