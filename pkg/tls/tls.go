package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/spiffe/go-spiffe/v2/bundle/x509bundle"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/svid/x509svid"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

// SVIDSource is the subset of the workload API source the server needs.
type SVIDSource interface {
	x509svid.Source
	x509bundle.Source
	Close() error
}

// Source serves mTLS using SVIDs obtained from the SPIRE agent. The
// underlying X509Source rotates certificates on its own.
type Source struct {
	source SVIDSource
	logger *zap.Logger
}

func NewSource(ctx context.Context, socketPath string, logger *zap.Logger) (*Source, error) {
	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(workloadapi.WithAddr(socketPath)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	logger.Info("SPIRE TLS source ready", zap.String("socket_path", socketPath))

	return newSource(source, logger), nil
}

func newSource(source SVIDSource, logger *zap.Logger) *Source {
	return &Source{source: source, logger: logger.Named("tls")}
}

// ServerConfig accepts any client SVID from the trust bundle.
func (s *Source) ServerConfig() *tls.Config {
	cfg := tlsconfig.MTLSServerConfig(s.source, s.source, tlsconfig.AuthorizeAny())
	cfg.MinVersion = tls.VersionTLS12
	return cfg
}

// Watch logs the current SVID on every tick until ctx is done.
func (s *Source) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logStatus()
		}
	}
}

func (s *Source) logStatus() {
	svid, err := s.source.GetX509SVID()
	if err != nil {
		s.logger.Error("Failed to get X509 SVID", zap.Error(err))
		return
	}
	if len(svid.Certificates) == 0 {
		s.logger.Warn("X509 SVID has no certificates", zap.String("spiffe_id", svid.ID.String()))
		return
	}

	leaf := svid.Certificates[0]
	s.logger.Info("Certificate status",
		zap.String("spiffe_id", svid.ID.String()),
		zap.Time("expiry", leaf.NotAfter),
		zap.Duration("ttl", time.Until(leaf.NotAfter)))
}

func (s *Source) Close() error {
	return s.source.Close()
}
