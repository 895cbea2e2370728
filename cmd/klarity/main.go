// Command klarity talks to a running LegalKlarity server: it uploads
// agreements for analysis, exports reports and runs an interactive chat.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"legalklarity-backend/chat"
	"legalklarity-backend/client"
	"legalklarity-backend/config"
	"legalklarity-backend/middleware"
	"legalklarity-backend/render"

	"go.uber.org/zap"
)

const tokenTTL = time.Hour

type options struct {
	apiURL    string
	userID    string
	tokenFile string
	verbose   bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "klarity: %v\n", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.apiURL, "api", cfg.APIBaseURL, "server base URL")
	flag.StringVar(&opts.userID, "user", os.Getenv("KLARITY_USER_ID"), "user id the token is issued for")
	flag.StringVar(&opts.tokenFile, "token-file", defaultTokenFile(), "where the last token is cached")
	flag.BoolVar(&opts.verbose, "v", false, "log requests to stderr")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "klarity: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	secret := []byte(cfg.AuthJWTSecret)
	transport := newTransport(opts, secret, logger)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "token":
		err = runToken(opts, secret)
	case "analyze":
		err = runAnalyze(ctx, transport, opts, args)
	case "chat":
		err = runChat(ctx, transport, logger)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "klarity: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: klarity [flags] <command> [args]

commands:
  token                         issue a token for -user and cache it
  analyze [-role r] [-lang l] [-format markdown|docx] [-out path] FILE
  chat                          ask legal questions interactively

flags:
`)
	flag.PrintDefaults()
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".klarity-token"
	}
	return filepath.Join(dir, "legalklarity", "token")
}

// newTransport mints fresh tokens locally when the signing secret and a user
// id are known. Otherwise it relies on the cached token.
func newTransport(opts options, secret []byte, logger *zap.Logger) *client.Transport {
	topts := []client.TransportOption{
		client.WithTokenCache(client.NewFileTokenCache(opts.tokenFile)),
		client.WithLogger(logger),
	}
	if len(secret) > 0 && opts.userID != "" {
		topts = append(topts, client.WithTokenSource(client.TokenSourceFunc(
			func(ctx context.Context, forceRefresh bool) (string, error) {
				token, _, err := middleware.NewToken(secret, opts.userID, tokenTTL)
				return token, err
			})))
	}
	return client.NewTransport(opts.apiURL, topts...)
}

func runToken(opts options, secret []byte) error {
	if len(secret) == 0 {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	if opts.userID == "" {
		return errors.New("-user is required")
	}

	token, expiresAt, err := middleware.NewToken(secret, opts.userID, tokenTTL)
	if err != nil {
		return err
	}
	if err := client.NewFileTokenCache(opts.tokenFile).Save(token); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "token for %s expires at %s, cached in %s\n", opts.userID, expiresAt.Format(time.RFC3339), opts.tokenFile)
	fmt.Println(token)
	return nil
}

func runAnalyze(ctx context.Context, transport *client.Transport, opts options, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	role := fs.String("role", "individual", "reader role the analysis is written for")
	lang := fs.String("lang", "en", "language code of the analysis")
	format := fs.String("format", "markdown", "output format: markdown or docx")
	out := fs.String("out", "", "output file (defaults to stdout for markdown)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("analyze takes exactly one file")
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	envelope, err := client.NewAnalysisClient(transport).Analyze(ctx, client.File{
		Name: filepath.Base(path),
		Data: data,
	}, opts.userID, *role, *lang)
	if err != nil {
		return err
	}

	view := render.Render(*envelope.Data.Analysis)
	switch *format {
	case "markdown":
		if *out == "" {
			fmt.Print(view.Markdown())
			return nil
		}
		return os.WriteFile(*out, []byte(view.Markdown()), 0644)
	case "docx":
		target := *out
		if target == "" {
			target = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_analysis.docx"
		}
		f, err := os.Create(target)
		if err != nil {
			return err
		}
		if err := render.WriteDOCX(f, view); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "report written to %s\n", target)
		return nil
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func runChat(ctx context.Context, transport *client.Transport, logger *zap.Logger) error {
	assistant := chat.NewAssistant(client.NewChatAPI(transport), chat.WithLogger(logger))
	for _, msg := range assistant.Transcript() {
		fmt.Printf("klarity> %s\n", msg.Text)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := assistant.Send(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
		fmt.Printf("klarity> %s\n", reply.Text)
		for _, c := range reply.Citations {
			fmt.Printf("  - %s <%s>\n", c.Title, c.URI)
		}
		if errors.Is(err, client.ErrAuth) {
			return err
		}
	}
}
