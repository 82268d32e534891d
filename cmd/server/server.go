package main

import (
	"context"
	"errors"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmfcosta/isep-ics-server/cache"
	cal "github.com/dmfcosta/isep-ics-server/calendar"
	h "github.com/dmfcosta/isep-ics-server/handlers"
	"github.com/dmfcosta/isep-ics-server/pkg/config"
	"github.com/dmfcosta/isep-ics-server/portal"
	"github.com/dmfcosta/isep-ics-server/schedule"
)

var debug bool

// documentBuilder chains the fetch orchestrator and the serializer into
// the single build step the cache manager invokes.
type documentBuilder struct {
	fetcher    *schedule.Fetcher
	serializer *cal.Serializer
}

func (b documentBuilder) BuildDocument(ctx context.Context) (string, error) {
	events, err := b.fetcher.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return b.serializer.Serialize(events), nil
}

var serverCmd = &cobra.Command{
	Use:   "isep-ics-srv",
	Short: "Serve the ISEP timetable as an ICS feed",
	Run: func(cmd *cobra.Command, args []string) {
		logger, _ := zap.NewProduction()
		if debug {
			logger, _ = zap.NewDevelopment()
		}

		loc, err := time.LoadLocation(appConfig.Timezone)
		if err != nil {
			logger.Fatal("invalid timezone",
				zap.String("timezone", appConfig.Timezone), zap.Error(err))
		}

		var creds portal.CredentialSource
		if appConfig.CookieFile != "" {
			fc, err := portal.NewFileCredentials(appConfig.CookieFile)
			if err != nil {
				logger.Fatal("load cookie file", zap.Error(err))
			}
			creds = fc
		} else {
			creds = portal.NewStaticCredentials(appConfig.Cookies)
		}

		client := portal.NewClient(portal.Options{
			BaseURL:      appConfig.BaseURL,
			CodeUser:     appConfig.CodeUser,
			CodeUserCode: appConfig.CodeUserCode,
			Entidade:     appConfig.Entidade,
			Username:     appConfig.Username,
			Password:     appConfig.Password,
			Timeout:      time.Duration(appConfig.TimeoutSeconds) * time.Second,
		}, creds, logger)

		fetcher := &schedule.Fetcher{
			Portal: client,
			Extractor: &schedule.Extractor{
				Location: loc,
				Logger:   logger,
			},
			Window: schedule.Window{
				Before: appConfig.WeeksBefore,
				After:  appConfig.WeeksAfter,
			},
			Logger: logger,
		}

		manager := &cache.Manager{
			Builder: documentBuilder{
				fetcher:    fetcher,
				serializer: &cal.Serializer{Timezone: appConfig.Timezone},
			},
			Prober: client,
			TTL:    time.Duration(appConfig.RefreshMinutes) * time.Minute,
			Logger: logger,
		}

		app := fiber.New(fiber.Config{AppName: appConfig.AppName})

		app.Use(limiter.New(limiter.Config{
			Next: func(c *fiber.Ctx) bool {
				return c.IP() == "127.0.0.1"
			},
			Max:        20,
			Expiration: 30 * time.Second,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.Get("x-forwarded-for")
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"error": "Too many requests",
				})
			},
		}))
		app.Use(fiberzap.New(fiberzap.Config{
			Logger: logger,
		}))

		handlers := h.Handlers{
			Logger: logger,
			Cache:  manager,
		}

		app.Get("/", handlers.RootHandler)
		app.Get("/calendar.ics", handlers.CalendarHandler)
		app.Get("/healthz", handlers.HealthHandler)

		defer func() {
			err := logger.Sync()
			if err != nil && !errors.Is(err, syscall.ENOTTY) {
				logger.Fatal(err.Error())
			}
		}()

		log.Fatal(app.Listen(":" + appConfig.Port))
	},
}

func init() {
	serverCmd.Flags().StringVarP(&appConfig.Port, "port", "p", appConfig.Port, "app server port")
	serverCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Debug Mode")
}

func main() {
	if err := config.New("ISEP").Load(&appConfig, "config.yml"); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(-1)
	}

	if err := serverCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(-1)
	}
}
