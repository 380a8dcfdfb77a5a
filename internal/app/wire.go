package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	s3blob "github.com/alanyoungcy/polymarketbot/internal/blob/s3"
	"github.com/alanyoungcy/polymarketbot/internal/cache/redis"
	"github.com/alanyoungcy/polymarketbot/internal/config"
	"github.com/alanyoungcy/polymarketbot/internal/crypto"
	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/notify"
	"github.com/alanyoungcy/polymarketbot/internal/platform/adapter"
	"github.com/alanyoungcy/polymarketbot/internal/platform/goldsky"
	"github.com/alanyoungcy/polymarketbot/internal/platform/paper"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venuea"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venueb"
	"github.com/alanyoungcy/polymarketbot/internal/store/postgres"
)

// Dependencies bundles every wired-up component a mode needs to run. It
// replaces the teacher's multi-strategy Dependencies struct with the
// narrower five-store, five-cache, one-archiver shape this domain model
// actually uses.
type Dependencies struct {
	Trades        domain.TradeStore
	Opportunities domain.OpportunityStore
	Markets       domain.NormalizedMarketStore
	Cooldowns     domain.PairCooldownStore
	Audit         domain.AuditStore

	Quotes        domain.QuoteCache
	CooldownCache domain.CooldownCache
	RateLimiter   domain.RateLimiter
	Lock          domain.LockManager
	Signal        domain.SignalBus

	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	VenueA domain.VenueAdapter
	VenueB domain.VenueAdapter

	Notifier *notify.Notifier

	// Goldsky is nil unless cfg.Goldsky.Enabled; only LiveMode reads it,
	// since scan/paper have no on-chain settlement to reconcile against.
	Goldsky *goldsky.Client
}

// Wire constructs every dependency named in cfg and returns a cleanup
// function that tears them down in reverse order. The cleanup function is
// always safe to call, including partway through a failed Wire call.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("wire: run migrations: %w", err)
		}
	}

	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("wire: s3: %w", err)
	}
	closers = append(closers, func() { _ = s3Client.Close() })

	trades := postgres.NewTradeStore(pgClient.Pool())
	opportunities := postgres.NewOpportunityStore(pgClient.Pool())
	markets := postgres.NewNormalizedMarketStore(pgClient.Pool())
	cooldowns := postgres.NewPairCooldownStore(pgClient.Pool())
	audit := postgres.NewAuditStore(pgClient.Pool())

	quoteCache := redis.NewQuoteCache(redisClient, cfg.Scan.PriceTickInterval.Duration*5)
	cooldownCache := redis.NewCooldownCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient)
	lockManager := redis.NewLockManager(redisClient)
	signalBus := redis.NewSignalBus(redisClient)

	writer := s3blob.NewWriter(s3Client)
	reader := s3blob.NewReader(s3Client)
	archiver := s3blob.NewArchiver(writer, trades, audit)

	venueA, venueB, err := wireVenues(cfg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("wire: venues: %w", err)
	}

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, slog.Default())

	var goldskyClient *goldsky.Client
	if cfg.Goldsky.Enabled {
		goldskyClient = goldsky.NewClient(cfg.Goldsky.GraphQLURL, cfg.Goldsky.ApiKey)
	}

	return &Dependencies{
		Trades:        trades,
		Opportunities: opportunities,
		Markets:       markets,
		Cooldowns:     cooldowns,
		Audit:         audit,

		Quotes:        quoteCache,
		CooldownCache: cooldownCache,
		RateLimiter:   rateLimiter,
		Lock:          lockManager,
		Signal:        signalBus,

		BlobWriter: writer,
		BlobReader: reader,
		Archiver:   archiver,

		VenueA: venueA,
		VenueB: venueB,

		Notifier: notifier,

		Goldsky: goldskyClient,
	}, cleanup, nil
}

// wireVenues builds the two concrete venue adapters from cfg, wrapping both
// in a paper-mode wallet simulator only when the mode is "paper". Venue-A signs
// every request including market data, so its RSA key is loaded regardless
// of mode; Venue-B's signer is only exercised when placing real orders, so
// it is left nil whenever no key source is configured.
func wireVenues(cfg *config.Config) (domain.VenueAdapter, domain.VenueAdapter, error) {
	rawA := venuea.NewClient(cfg.VenueA.BaseURL, cfg.VenueA.ApiKeyID, slog.Default())
	pem, err := loadVenueAKey(cfg)
	if err != nil {
		return nil, nil, err
	}
	if pem != nil {
		if err := rawA.SetRSAPrivateKey(pem); err != nil {
			return nil, nil, fmt.Errorf("venue-a: %w", err)
		}
	}

	gamma := venueb.NewGammaClient(cfg.VenueB.GammaHost)

	var signer *crypto.Signer
	if cfg.VenueB.PrivateKey != "" || cfg.VenueB.EncryptedKeyPath != "" {
		keyHex, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.VenueB.PrivateKey,
			EncryptedKeyPath: cfg.VenueB.EncryptedKeyPath,
			KeyPassword:      cfg.VenueB.KeyPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("venue-b: load key: %w", err)
		}
		signer, err = crypto.NewSigner(keyHex, cfg.VenueB.ChainID)
		if err != nil {
			return nil, nil, fmt.Errorf("venue-b: signer: %w", err)
		}
	}

	var hmacAuth *crypto.HMACAuth
	if cfg.Builder.ApiKey != "" && cfg.Builder.ApiSecret != "" && cfg.Builder.ApiPassphrase != "" {
		hmacAuth = &crypto.HMACAuth{
			Key:        cfg.Builder.ApiKey,
			Secret:     cfg.Builder.ApiSecret,
			Passphrase: cfg.Builder.ApiPassphrase,
		}
	}

	rawB := venueb.NewClobClient(cfg.VenueB.ClobHost, signer, hmacAuth, cfg.VenueB.FunderAddress, gamma)

	wrappedA := adapter.NewVenueA(rawA, cfg.Scan.MarketWindowHours)
	wrappedB := adapter.NewVenueB(rawB, cfg.Scan.MarketWindowHours)

	if strings.ToLower(cfg.Mode) != "paper" {
		return wrappedA, wrappedB, nil
	}

	return paper.New(wrappedA, paper.StartingBalanceUSD, cfg.Exec.VenueATakerFeePct),
		paper.New(wrappedB, paper.StartingBalanceUSD, 0),
		nil
}

// loadVenueAKey resolves Venue-A's RSA private key from config, preferring
// an inline PEM over a file path. It returns nil, nil when neither is set,
// which leaves the venue-A client unsigned (fine for a --config that only
// ever runs against a venue without live trading enabled).
func loadVenueAKey(cfg *config.Config) ([]byte, error) {
	if cfg.VenueA.RsaPrivateKeyPEM != "" {
		return []byte(cfg.VenueA.RsaPrivateKeyPEM), nil
	}
	if cfg.VenueA.RsaPrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.VenueA.RsaPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("venue-a: reading rsa_private_key_path: %w", err)
		}
		return data, nil
	}
	return nil, nil
}
