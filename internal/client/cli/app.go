package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mediaxfer/internal/client/config"
	"github.com/dmitrijs2005/mediaxfer/internal/client/media"
	"github.com/dmitrijs2005/mediaxfer/internal/client/media/native"
	"github.com/dmitrijs2005/mediaxfer/internal/client/media/web"
	"github.com/dmitrijs2005/mediaxfer/internal/client/session"
	"github.com/dmitrijs2005/mediaxfer/internal/client/share"
	"github.com/dmitrijs2005/mediaxfer/internal/filex"
	"github.com/dmitrijs2005/mediaxfer/internal/logging"
	"github.com/dmitrijs2005/mediaxfer/internal/metrics"
	"github.com/spf13/afero"
)

// App wires configuration into the transfer pipeline for one CLI run.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	metrics *metrics.Collector
	fs      afero.Fs

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	store *session.Store
}

func NewApp(cfg *config.Config, log logging.Logger, in io.Reader, out, errOut io.Writer) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		fs:      afero.NewOsFs(),
		in:      in,
		out:     out,
		errOut:  errOut,
	}
}

// Sessions opens the session store on first use.
func (a *App) Sessions(ctx context.Context) (*session.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	if _, err := filex.EnsureDir(a.fs, filepath.Dir(a.cfg.SessionDB)); err != nil {
		return nil, err
	}
	s, err := session.Open(ctx, a.cfg.SessionDB)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// Transport builds the FileTransport selected by the platform setting.
func (a *App) Transport(ctx context.Context) (media.FileTransport, error) {
	switch a.cfg.Platform {
	case config.PlatformNative:
		opts := []native.Option{
			native.WithFs(a.fs),
			native.WithLogger(a.log),
			native.WithShareSheet(a.shareSheet()),
		}
		if p := progressFor(a.errOut); p != nil {
			opts = append(opts, native.WithProgress(p))
		}
		return native.New(a.cfg.CacheDir, opts...), nil

	case config.PlatformWeb:
		store, err := web.NewObjectStore(web.DefaultObjectStoreSize, func(url string) {
			a.log.Debug(ctx, "object url revoked", "url", url)
		})
		if err != nil {
			return nil, err
		}
		trigger := web.NewDirTrigger(a.fs, a.cfg.DownloadDir, store, nil)
		return web.New(store, trigger, web.WithFs(a.fs), web.WithLogger(a.log)), nil
	}

	return nil, fmt.Errorf("unknown platform %q", a.cfg.Platform)
}

func (a *App) shareSheet() native.ShareSheet {
	if a.cfg.S3.Bucket == "" {
		return share.Unavailable{}
	}
	s3 := a.cfg.S3
	return share.NewS3ShareSheet(share.S3Config{
		Bucket:    s3.Bucket,
		Region:    s3.Region,
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Prefix:    s3.Prefix,
		LinkTTL:   s3.LinkTTL,
	}, a.fs, nil)
}

// MediaClient builds the transfer client. A session store that cannot be
// opened only means requests go out without a token.
func (a *App) MediaClient(ctx context.Context) (*media.Client, error) {
	var tokens media.TokenProvider
	if store, err := a.Sessions(ctx); err != nil {
		a.log.Debug(ctx, "session store unavailable", "error", err)
		tokens = media.NewSessionTokenProvider(nil, a.log)
	} else {
		tokens = media.NewSessionTokenProvider(store, a.log)
	}

	tr, err := a.Transport(ctx)
	if err != nil {
		return nil, err
	}

	policy := media.DefaultRetryPolicy()
	policy.MaxAttempts = a.cfg.MaxAttempts
	policy.Backoff = a.cfg.RetryBackoff
	if a.cfg.RetryClientErrors {
		policy.Retryable = nil
	}

	return media.New(a.cfg.BaseURL, tokens, tr,
		media.WithLogger(a.log),
		media.WithRetryPolicy(policy),
		media.WithTimeout(a.cfg.RequestTimeout),
		media.WithMetrics(a.metrics),
	)
}

// Close releases the session store and writes the metrics file.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
		a.log.Warn(ctx, "metrics not written", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func stdinIsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}
