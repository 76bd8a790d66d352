// Command datacom-search runs a contact or company search against data.com
// and prints the matching records, one JSON document per line.
//
// Usage:
//
//	datacom-search --endpoint contact -q firstname=Ada -q country=UK
//	datacom-search --endpoint company -q name=Acme --count
//	datacom-search --endpoint contact -q lastname=Lovelace --page last
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Sternrassler/datacom-client/pkg/client"
	"github.com/Sternrassler/datacom-client/pkg/config"
	"github.com/Sternrassler/datacom-client/pkg/logging"
	"github.com/Sternrassler/datacom-client/pkg/metrics"
	"github.com/Sternrassler/datacom-client/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var endpoints = map[string]string{
	"contact": client.EndpointSearchContact,
	"company": client.EndpointSearchCompany,
}

// errLimitReached stops a streaming pass once --limit records were printed.
var errLimitReached = errors.New("limit reached")

type options struct {
	endpoint string
	query    url.Values
	count    bool
	all      bool
	page     pagination.PageRef
	limit    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "datacom-search: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging())

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Error().Err(err).Msg("Search failed")
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	fs := pflag.NewFlagSet("datacom-search", pflag.ContinueOnError)

	endpoint := fs.String("endpoint", "contact", "search endpoint: contact or company")
	terms := fs.StringArrayP("query", "q", nil, "search term as key=value (repeatable)")
	count := fs.Bool("count", false, "print the hit count and page count only")
	all := fs.Bool("all", false, "load every reachable record and print them as one JSON array")
	page := fs.String("page", "", "print a single page: a number, first or last")
	limit := fs.Int("limit", 0, "stop after this many records (0 = no limit)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path, ok := endpoints[*endpoint]
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q (want contact or company)", *endpoint)
	}

	query := url.Values{}
	for _, term := range *terms {
		key, value, found := strings.Cut(term, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid query term %q (want key=value)", term)
		}
		query.Add(key, value)
	}

	ref, err := pagination.ParsePageRef(*page)
	if err != nil {
		return nil, err
	}

	modes := 0
	for _, set := range []bool{*count, *all, !ref.IsAbsent()} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return nil, errors.New("--count, --all and --page are mutually exclusive")
	}
	if *limit < 0 {
		return nil, fmt.Errorf("--limit must be >= 0 (got %d)", *limit)
	}

	return &options{
		endpoint: path,
		query:    query,
		count:    *count,
		all:      *all,
		page:     ref,
		limit:    *limit,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger := logging.NewLogger("datacom-search")

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
	}

	c, err := client.New(cfg.Client(redisClient))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	collection, err := c.Search(opts.endpoint, opts.query)
	if err != nil {
		return err
	}

	logger.Info().
		Str("endpoint", opts.endpoint).
		Str("query", opts.query.Encode()).
		Int("page_size", collection.PageSize()).
		Msg("Starting search")

	switch {
	case opts.count:
		size, err := collection.Size(ctx)
		if err != nil {
			return err
		}
		effective, err := collection.EffectiveSize(ctx)
		if err != nil {
			return err
		}
		pages, err := collection.TotalPages(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(stdout).Encode(map[string]int{
			"size":           size,
			"effective_size": effective,
			"pages":          pages,
		})

	case opts.all:
		records, err := collection.All(ctx)
		if err != nil {
			return err
		}
		if opts.limit > 0 && len(records) > opts.limit {
			records = records[:opts.limit]
		}
		return json.NewEncoder(stdout).Encode(records)

	case !opts.page.IsAbsent():
		records, err := collection.Page(ctx, opts.page)
		if err != nil {
			return err
		}
		if opts.limit > 0 && len(records) > opts.limit {
			records = records[:opts.limit]
		}
		for _, record := range records {
			if err := writeLine(stdout, record); err != nil {
				return err
			}
		}
		return nil

	default:
		printed := 0
		err := collection.ForEach(ctx, func(record json.RawMessage, _ int) error {
			if err := writeLine(stdout, record); err != nil {
				return err
			}
			printed++
			if printed == opts.limit {
				return errLimitReached
			}
			return nil
		})
		if err != nil && !errors.Is(err, errLimitReached) {
			return err
		}
		return nil
	}
}

// connectRedis returns nil when caching is off or Redis is unreachable; the
// search then runs uncached.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	redisOpts, err := cfg.RedisOptions()
	if err != nil || redisOpts == nil {
		return nil, err
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", redisOpts.Addr).Msg("Redis unavailable, running without cache")
		redisClient.Close()
		return nil, nil
	}
	return redisClient, nil
}

// writeLine prints record compacted onto a single line.
func writeLine(w io.Writer, record json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, record); err != nil {
		return fmt.Errorf("compact record: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
