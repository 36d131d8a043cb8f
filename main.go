package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"note_generator/generator"
	"note_generator/publisher"
	"note_generator/server"
	"note_generator/timeline"
)

const defaultConfigPath = "config/config.json"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config (.json/.yaml)")
	inPath := flag.String("in", "", "file with one note per line (- for stdin)")
	fetch := flag.Bool("fetch", false, "use the remote local timeline as input")
	post := flag.Bool("post", false, "post the generated note")
	replyID := flag.String("reply", "", "reply to this note id when posting")
	seed := flag.Uint64("seed", 0, "random seed (0 = random)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := newLogger(cfg, *verbose)

	ctx := context.Background()
	source, err := buildSource(cfg, *seed, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var pub *publisher.Publisher
	if cfg.Host != "" && cfg.Token != "" {
		pub, err = publisher.New(cfg, nil, log.WithField("pkg", "publisher"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	// Web server mode
	if *serve {
		store, err := buildStore(ctx, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		srv, err := server.New(source, store, pub, cfg.Timeline.Limit, log.WithField("pkg", "server"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		log.Infof("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	var inputs []string
	switch {
	case *fetch:
		if pub == nil {
			fmt.Fprintln(os.Stderr, "--fetch requires host and token in config")
			os.Exit(1)
		}
		inputs, err = pub.FetchTimeline(ctx, cfg.Timeline.Limit)
	case *inPath != "":
		inputs, err = readInputs(*inPath)
	default:
		fmt.Fprintln(os.Stderr, "--in or --fetch is required")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.WithField("inputs", len(inputs)).Info("[cli] generating")
	text, err := source.Compose(ctx, inputs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
	fmt.Println(text)

	if *post {
		if pub == nil {
			fmt.Fprintln(os.Stderr, "--post requires host and token in config")
			os.Exit(1)
		}
		id, err := pub.CreateNote(ctx, publisher.NoteParams{Text: text, ReplyID: *replyID})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.Infof("[cli] posted note_id=%s", id)
	}
}

// loadConfig reads the config file if present; the default path may be absent.
func loadConfig(path string) (publisher.Config, error) {
	cfg, err := publisher.LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || path != defaultConfigPath {
			return publisher.Config{}, err
		}
		cfg = publisher.Config{}
	}
	return publisher.ApplyEnv(cfg, os.LookupEnv), nil
}

// newLogger 以 cfg.LogLevel 为准；verbose 时强制 debug。
func newLogger(cfg publisher.Config, verbose bool) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level := logrus.InfoLevel
	if lv, err := logrus.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		level = lv
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logrus.NewEntry(logger)
}

func buildSource(cfg publisher.Config, seed uint64, log *logrus.Entry) (generator.Source, error) {
	tok, err := generator.NewKagomeTokenizer(generator.TokenizerOptions{
		DictPath:     cfg.Tokenizer.DictPath,
		UserDictPath: cfg.Tokenizer.UserDictPath,
	})
	if err != nil {
		return nil, err
	}
	opts := generator.Options{
		ChunkSize:      cfg.Generation.ChunkSize,
		MaxMatchLength: cfg.Generation.MaxMatchLength,
		MaxSteps:       cfg.Generation.MaxSteps,
		MaxAttempts:    cfg.Generation.MaxAttempts,
		Seed:           seed,
	}
	var settings generator.SourceSettings
	if cfg.LLM != nil {
		settings = generator.SourceSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		}
	}
	return generator.NewSource(settings, tok, opts, log.WithField("pkg", "generator"))
}

func buildStore(ctx context.Context, cfg publisher.Config) (timeline.Store, error) {
	if cfg.Timeline.RedisAddr == "" {
		return timeline.NewMemory(cfg.Timeline.Size), nil
	}
	return timeline.DialRedis(ctx, timeline.RedisOptions{
		Addr:     cfg.Timeline.RedisAddr,
		Password: cfg.Timeline.RedisPassword,
		DB:       cfg.Timeline.RedisDB,
		Key:      cfg.Timeline.RedisKey,
		Capacity: cfg.Timeline.Size,
	})
}

func readInputs(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var inputs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.ReplaceAll(sc.Text(), `\n`, "\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		inputs = append(inputs, line)
	}
	return inputs, sc.Err()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, generator.ErrEmptyCorpus), errors.Is(err, generator.ErrNoStartCandidate):
		return 2
	case errors.Is(err, generator.ErrRetryExhausted):
		return 3
	default:
		return 1
	}
}
