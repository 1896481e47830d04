// pdfhtml renders PDF files as HTML with a selectable text overlay.
//
// Usage:
//
//	pdfhtml convert [options] <file.pdf>
//	pdfhtml extract [options] <file.pdf>
//	pdfhtml info <file.pdf>
//	pdfhtml serve [--addr :8080]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pdfhtml",
		Usage: "render PDF pages as HTML with selectable text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := newLogger(c.String("log-level"))
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]any{"logger": logger}
			return nil
		},
		Commands: []*cli.Command{
			convertCommand(),
			extractCommand(),
			infoCommand(),
			serveCommand(),
		},
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}

func loggerFrom(c *cli.Context) *logrus.Logger {
	if l, ok := c.App.Metadata["logger"].(*logrus.Logger); ok {
		return l
	}
	l, _ := newLogger("warn")
	return l
}
