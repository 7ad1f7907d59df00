package telegram

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"dealwatch/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// ConsoleInput reads the login code from the operator's terminal. It is only
// used on the first start, before a session file exists.
type ConsoleInput struct {
	In  io.Reader
	Out io.Writer
}

func (c ConsoleInput) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Fprint(c.Out, "Enter the code sent by Telegram: ")

	text, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

type ClientOptions struct {
	AppID       int
	AppHash     string
	Phone       string
	Password    string
	SessionPath string
	Logger      *zap.Logger
}

// Client is a user session over MTProto.
type Client struct {
	client     *telegram.Client
	dispatcher tg.UpdateDispatcher
	phone      string
	password   string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if dir := filepath.Dir(opts.SessionPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	zapLogger := opts.Logger
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	dispatcher := tg.NewUpdateDispatcher()

	client := telegram.NewClient(opts.AppID, opts.AppHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: opts.SessionPath},
		Logger:         zapLogger,
		UpdateHandler:  dispatcher,
	})

	return &Client{
		client:     client,
		dispatcher: dispatcher,
		phone:      opts.Phone,
		password:   opts.Password,
	}, nil
}

// OnNewMessage registers a handler for incoming messages. It must be called
// before Start.
func (c *Client) OnNewMessage(handler tg.NewMessageHandler) {
	c.dispatcher.OnNewMessage(handler)
}

// Start connects, logs in when needed and keeps the connection open until
// ctx is cancelled.
func (c *Client) Start(ctx context.Context, onReady func(ctx context.Context) error) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status error: %w", err)
		}

		if !status.Authorized {
			logger(ctx).Info("user not authorized, starting login flow")

			if err := c.authenticate(ctx); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			logger(ctx).Info("authentication successful")
		} else {
			logger(ctx).Info("user already authorized")
		}

		if onReady != nil {
			if err := onReady(ctx); err != nil {
				return err
			}
		}

		<-ctx.Done()

		return ctx.Err()
	})
}

// ResolveUsername returns the user id behind @username. It only works while
// Start is running.
func (c *Client) ResolveUsername(ctx context.Context, username string) (int64, error) {
	resolved, err := c.client.API().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		return 0, fmt.Errorf("contacts.resolveUsername %s: %w", username, err)
	}

	user, ok := resolved.Peer.(*tg.PeerUser)
	if !ok {
		return 0, fmt.Errorf("%s is not a user", username)
	}

	return user.UserID, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	userAuth := auth.Constant(
		c.phone,
		c.password,
		ConsoleInput{In: os.Stdin, Out: os.Stdout},
	)

	flow := auth.NewFlow(
		userAuth,
		auth.SendCodeOptions{},
	)

	return c.client.Auth().IfNecessary(ctx, flow)
}
