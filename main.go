package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comment-shots/comments"
	"comment-shots/internal"
	"comment-shots/render"
	"comment-shots/source"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func configureLogging(c *cli.Context) error {
	level, err := logrus.ParseLevel(c.String("logLevel"))
	if err != nil {
		return &internal.ConfigurationError{Field: "logLevel", Message: "must be one of debug, info, warn, error"}
	}
	logrus.SetLevel(level)

	switch c.String("logFormat") {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return &internal.ConfigurationError{Field: "logFormat", Message: "must be one of text, json"}
	}

	return nil
}

// loadConfig reads the config file when one is given and lets explicitly set
// flags override its values.
func loadConfig(c *cli.Context) (internal.Config, error) {
	cfg := internal.DefaultConfig()
	if name := c.String("config"); name != "" {
		var err error
		cfg, err = internal.ReadConfig(name)
		if err != nil {
			return cfg, err
		}
	}

	if c.IsSet("videoIds") {
		cfg.VideoIDs = c.StringSlice("videoIds")
	}
	if c.IsSet("searchTerms") {
		cfg.SearchTerms = c.StringSlice("searchTerms")
	}
	if c.IsSet("filteredWords") {
		cfg.FilteredWords = c.StringSlice("filteredWords")
	}
	if c.IsSet("minLikes") {
		cfg.MinLikes = c.Int("minLikes")
	}
	if c.IsSet("minReplies") {
		cfg.MinReplies = c.Int("minReplies")
	}
	if c.IsSet("maxChars") {
		cfg.MaxChars = c.Int("maxChars")
	}
	if c.IsSet("maxComments") {
		cfg.MaxComments = c.Int("maxComments")
	}
	if c.IsSet("theme") {
		cfg.Theme = c.String("theme")
	}

	return cfg, nil
}

// connectMongo connects to the database named in the path component of uri.
func connectMongo(uri string) (*mongo.Client, *mongo.Database, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, errors.Wrap(err, "can not parse the --mongoDBURI")
	}
	if len(u.Path) < 2 {
		return nil, nil, errors.Errorf("expected database name in path component of --mongoDBURI, found %s", u.Path)
	}
	databaseName := u.Path[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot connect to mongo")
	}

	// Ensure we're connected to the primary.
	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, errors.Wrap(err, "cannot ping mongo")
	}

	return client, client.Database(databaseName), nil
}

// newSource builds the comment source selected by --source. The returned
// func releases whatever the source holds on to.
func newSource(c *cli.Context) (source.Source, func(), error) {
	switch c.String("source") {
	case "youtube":
		if c.String("apiKey") == "" {
			return nil, nil, &internal.ConfigurationError{Field: "apiKey", Message: "is required for the youtube source"}
		}

		yt, err := source.NewYouTube(source.YouTubeOptions{
			BaseURL:           c.String("youtubeURL"),
			APIKey:            c.String("apiKey"),
			RequestsPerSecond: c.Float64("requestsPerSecond"),
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not create youtube source")
		}

		return yt, func() {}, nil
	case "coral":
		if c.String("mongoDBURI") == "" || c.String("tenantID") == "" {
			return nil, nil, &internal.ConfigurationError{Field: "mongoDBURI", Message: "and --tenantID are required for the coral source"}
		}

		client, db, err := connectMongo(c.String("mongoDBURI"))
		if err != nil {
			return nil, nil, err
		}

		closer := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := client.Disconnect(ctx); err != nil {
				logrus.WithError(err).Warn("could not disconnect from mongo")
			}
		}

		return source.NewCoral(db, source.CoralOptions{
			TenantID: c.String("tenantID"),
			SiteID:   c.String("siteID"),
		}), closer, nil
	default:
		return nil, nil, &internal.ConfigurationError{Field: "source", Message: "must be one of youtube, coral"}
	}
}

func run(c *cli.Context) error {
	if err := configureLogging(c); err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Read the custom comments up front, a missing file must fail before any
	// browser is started.
	var custom *internal.CustomComments
	if name := c.String("customComments"); name != "" {
		list, err := internal.ReadCustomComments(name)
		if err != nil {
			return err
		}
		if list.Theme != "" && !c.IsSet("theme") {
			cfg.Theme = list.Theme
		}
		custom = &list
	} else if err := cfg.Validate(); err != nil {
		return err
	}

	criteria, err := cfg.Criteria()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chrome := render.NewChrome(render.ChromeOptions{
		ExecPath: c.String("chromePath"),
		Scale:    c.Float64("scale"),
	})
	defer func() {
		if err := chrome.Close(); err != nil {
			logrus.WithError(err).Warn("could not close chrome")
		}
	}()

	renderer := render.NewRenderer(chrome, c.String("outputDir"))
	renderer.Timeout = c.Duration("renderTimeout")

	pipeline := &internal.Pipeline{
		Renderer: renderer,
		Criteria: criteria,
		Quota:    cfg.MaxComments,
		FailFast: c.Bool("failFast"),
	}

	var report *internal.Report
	if custom != nil {
		report, err = pipeline.RenderCustom(ctx, custom.Comments, criteria.Theme)
	} else {
		src, closeSource, serr := newSource(c)
		if serr != nil {
			return serr
		}
		defer closeSource()

		pipeline.Source = src
		report, err = pipeline.Run(ctx, cfg.VideoIDs)
	}

	// Run failures are reported once, the images rendered so far are kept and
	// the summary is still printed.
	if err != nil {
		logrus.WithError(err).Error("run stopped early")
	}
	if report != nil {
		internal.WriteSummary(c.App.Writer, report)
		logrus.WithFields(logrus.Fields{
			"outputDir": renderer.OutputDir(),
			"accepted":  report.Accepted,
		}).Info("done")
	}

	return nil
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to a JSON5 or YAML config file, <name>.local.<ext> is merged over it",
			EnvVars: []string{"CONFIG"},
		},
		&cli.StringSliceFlag{
			Name:    "videoIds",
			Usage:   "identifiers of the videos (or stories) to fetch comments for",
			EnvVars: []string{"VIDEO_IDS"},
		},
		&cli.StringSliceFlag{
			Name:    "searchTerms",
			Usage:   "a comment must contain at least one of these terms",
			EnvVars: []string{"SEARCH_TERMS"},
		},
		&cli.StringSliceFlag{
			Name:    "filteredWords",
			Usage:   "comments containing any of these words are rejected",
			EnvVars: []string{"FILTERED_WORDS"},
		},
		&cli.IntFlag{
			Name:    "minLikes",
			Usage:   "minimum number of likes",
			EnvVars: []string{"MIN_LIKES"},
		},
		&cli.IntFlag{
			Name:    "minReplies",
			Usage:   "minimum number of replies",
			EnvVars: []string{"MIN_REPLIES"},
		},
		&cli.IntFlag{
			Name:    "maxChars",
			Usage:   "maximum comment length, 0 for no limit",
			EnvVars: []string{"MAX_CHARS"},
		},
		&cli.IntFlag{
			Name:    "maxComments",
			Usage:   "stop after rendering this many comments",
			Value:   internal.DefaultMaxComments,
			EnvVars: []string{"MAX_COMMENTS"},
		},
		&cli.StringFlag{
			Name:    "theme",
			Usage:   "dark or light",
			Value:   string(comments.ThemeDark),
			EnvVars: []string{"THEME"},
		},
		&cli.StringFlag{
			Name:    "source",
			Usage:   "where comments come from, youtube or coral",
			Value:   "youtube",
			EnvVars: []string{"SOURCE"},
		},
		&cli.StringFlag{
			Name:    "apiKey",
			Usage:   "YouTube Data API key",
			EnvVars: []string{"YOUTUBE_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "youtubeURL",
			Usage:   "base URL of the YouTube Data API",
			Value:   source.DefaultYouTubeURL,
			EnvVars: []string{"YOUTUBE_URL"},
		},
		&cli.Float64Flag{
			Name:    "requestsPerSecond",
			Usage:   "pace YouTube page requests, 0 disables pacing",
			EnvVars: []string{"REQUESTS_PER_SECOND"},
		},
		&cli.StringFlag{
			Name:    "mongoDBURI",
			Usage:   "URI for the Coral MongoDB database, used with --source coral",
			EnvVars: []string{"MONGODB_URI"},
		},
		&cli.StringFlag{
			Name:    "tenantID",
			Usage:   "ID for the Coral Tenant, used with --source coral",
			EnvVars: []string{"TENANT_ID"},
		},
		&cli.StringFlag{
			Name:    "siteID",
			Usage:   "optional ID for the Coral Site, used with --source coral",
			EnvVars: []string{"SITE_ID"},
		},
		&cli.StringFlag{
			Name:    "customComments",
			Usage:   "render the comments in this file as is, without fetching or filtering",
			EnvVars: []string{"CUSTOM_COMMENTS"},
		},
		&cli.StringFlag{
			Name:    "outputDir",
			Usage:   "directory the images are written to",
			Value:   render.DefaultOutputDir,
			EnvVars: []string{"OUTPUT_DIR"},
		},
		&cli.BoolFlag{
			Name:    "failFast",
			Usage:   "when used, the first render error stops the run",
			EnvVars: []string{"FAIL_FAST"},
		},
		&cli.DurationFlag{
			Name:    "renderTimeout",
			Usage:   "bound on a single render, 0 for no limit",
			EnvVars: []string{"RENDER_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "chromePath",
			Usage:   "path to the Chrome binary, looked up when empty",
			EnvVars: []string{"CHROME_PATH"},
		},
		&cli.Float64Flag{
			Name:    "scale",
			Usage:   "device scale factor of the screenshots",
			Value:   1,
			EnvVars: []string{"SCALE"},
		},
		&cli.StringFlag{
			Name:    "logLevel",
			Usage:   "debug, info, warn or error",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "logFormat",
			Usage:   "text or json",
			Value:   "text",
			EnvVars: []string{"LOG_FORMAT"},
		},
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "comment-shots"
	app.Usage = "render matching comments as images"
	app.Version = fmt.Sprintf("%v, commit %v, built at %v", version, commit, date)
	app.Flags = flags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal()
	}
}
