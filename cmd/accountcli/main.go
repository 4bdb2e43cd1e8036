package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/app/clientapp"
	"github.com/enkitstudio/accountkit/internal/config"
	"github.com/enkitstudio/accountkit/internal/domain/account"
	"github.com/enkitstudio/accountkit/internal/infra/logger"
	"github.com/enkitstudio/accountkit/internal/services/classify"
	"github.com/enkitstudio/accountkit/internal/services/notify"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := clientapp.New(cfg, log)
	if err != nil {
		log.Fatal("create client app", zap.Error(err))
	}
	defer func() {
		_ = app.Close()
	}()

	seen := make(map[string]bool)
	unsubscribe := app.Notifier().Subscribe(func(items []notify.Notification) {
		for _, n := range items {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			fmt.Printf("  [%s] %s\n", n.Severity, n.Message)
		}
	})
	defer unsubscribe()

	if app.Restore(ctx) {
		identity := app.Sessions().Current()
		fmt.Printf("resumed session for %s\n", identity.DisplayName())
	}

	fmt.Println("commands: login, logout, register, activate, reset, reset-finish, whoami, update, passwd, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var info *classify.ErrorInfo
		switch fields[0] {
		case "quit", "exit":
			return
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <username> <password>")
				continue
			}
			info = app.Login(ctx, fields[1], fields[2])
		case "logout":
			app.Logout(ctx)
		case "register":
			if len(fields) != 4 {
				fmt.Println("usage: register <username> <email> <password>")
				continue
			}
			info = app.Register(ctx, account.RegistrationData{
				Username: fields[1],
				Email:    fields[2],
				Password: fields[3],
			})
		case "activate":
			if len(fields) != 2 {
				fmt.Println("usage: activate <token>")
				continue
			}
			info = app.Activate(ctx, fields[1])
		case "reset":
			if len(fields) != 2 {
				fmt.Println("usage: reset <email>")
				continue
			}
			info = app.RequestPasswordReset(ctx, fields[1])
		case "reset-finish":
			if len(fields) != 3 {
				fmt.Println("usage: reset-finish <token> <new-password>")
				continue
			}
			info = app.FinishPasswordReset(ctx, fields[1], fields[2])
		case "whoami":
			decision := app.Guard().Evaluate()
			if !decision.Allowed {
				fmt.Printf("not signed in, go to %s\n", decision.RedirectTo)
				continue
			}
			identity, perr := app.Profile(ctx)
			if perr != nil {
				info = perr
				break
			}
			fmt.Printf("%s <%s> authorities=%s\n", identity.DisplayName(), identity.Email, strings.Join(identity.Authorities, ","))
		case "update":
			if len(fields) != 4 {
				fmt.Println("usage: update <first-name> <last-name> <email>")
				continue
			}
			info = app.UpdateProfile(ctx, account.ProfileUpdate{
				FirstName: fields[1],
				LastName:  fields[2],
				Email:     fields[3],
			})
		case "passwd":
			if len(fields) != 3 {
				fmt.Println("usage: passwd <current> <new>")
				continue
			}
			info = app.ChangePassword(ctx, fields[1], fields[2])
		default:
			fmt.Printf("unknown command %q\n", fields[0])
			continue
		}

		if info != nil {
			fmt.Printf("error: %s (%s)\n", info.Message, info.Code)
		}
	}
}
