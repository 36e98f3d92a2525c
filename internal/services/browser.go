package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/detran-api/internal/config"
)

// BrowserService creates isolated Chrome sessions. Unlike a shared pool,
// every query gets its own allocator and browser context, exclusively owned
// for the query's lifetime and torn down unconditionally when it ends.
type BrowserService struct {
	config config.BrowserConfig
	logger *logrus.Logger
}

// Session is one exclusively-owned Chrome instance driving one query.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *logrus.Entry
}

// NewBrowserService creates a new browser service
func NewBrowserService(cfg config.BrowserConfig, logger *logrus.Logger) *BrowserService {
	return &BrowserService{
		config: cfg,
		logger: logger,
	}
}

// Health returns browser service health status
func (s *BrowserService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":   "healthy",
		"headless": s.config.Headless,
	}
}

// Close closes the browser service. Sessions are per-query, so there is no
// persistent browser to tear down.
func (s *BrowserService) Close() error {
	s.logger.Info("Serviço de navegador encerrado")
	return nil
}

// NewSession launches a fresh Chrome instance bound to ctx. The caller must
// Close the session on every exit path.
func (s *BrowserService) NewSession(ctx context.Context) (*Session, error) {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(s.config.WindowWidth, s.config.WindowHeight),
		chromedp.UserAgent(s.config.UserAgent),
	}
	if s.config.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	session := &Session{
		id:  uuid.New().String(),
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
	}
	session.logger = s.logger.WithField("session_id", session.id)

	// Force the browser process to start now so a broken Chrome install
	// surfaces here instead of mid-query.
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		session.cancel()
		return nil, fmt.Errorf("%w: navegador não iniciou: %v", ErrNavigation, err)
	}

	session.logger.Debug("Sessão de navegador criada")
	return session, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Authenticate installs the basic-auth header the restricted area expects.
// DetranNet's area restrita challenges with HTTP basic auth; presenting the
// header up front avoids the challenge round trip entirely.
func (s *Session) Authenticate(user, password string) error {
	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
	err := chromedp.Run(s.ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Authorization": "Basic " + token,
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: falha ao configurar autenticação: %v", ErrNavigation, err)
	}
	return nil
}

// Navigate opens the frameset entry page and waits for the top document
func (s *Session) Navigate(url string) error {
	s.logger.WithField("url", url).Debug("Navegando para o DetranNet")
	err := chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	return nil
}

// SubmitPlate injects the plate into the frame exposing the query input,
// fires the edit events the page's validation depends on, and submits:
// preferring the sibling image affordance, falling back to Enter on the
// focused input. It does not wait for the page to update.
func (s *Session) SubmitPlate(plate string) (*submitResult, error) {
	var result submitResult
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(fillPlateScript(plate), &result)); err != nil {
		return nil, fmt.Errorf("falha ao preencher placa: %w", err)
	}
	if !result.Found {
		return nil, ErrInputNotFound
	}

	if !result.Clicked {
		s.logger.Debug("Afordância de envio não encontrada, enviando Enter no campo")
		if err := chromedp.Run(s.ctx, chromedp.KeyEvent(kb.Enter)); err != nil {
			return nil, fmt.Errorf("falha ao enviar consulta: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"frame":   result.FrameName,
		"clicked": result.Clicked,
	}).Debug("Placa submetida")
	return &result, nil
}

// SnapshotFrames captures every reachable frame's text and markup in the
// session's natural frame enumeration order.
func (s *Session) SnapshotFrames() ([]FrameSnapshot, error) {
	var snapshots []FrameSnapshot
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(snapshotFramesScript, &snapshots)); err != nil {
		return nil, fmt.Errorf("falha ao capturar frames: %w", err)
	}
	return snapshots, nil
}

// ExpandDebtsPanel clicks the debt listing header when present. The panel
// loads asynchronously with no completion signal; the caller applies the
// secondary settling delay before re-snapshotting.
func (s *Session) ExpandDebtsPanel() (bool, error) {
	var clicked bool
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(expandDebtsScript, &clicked)); err != nil {
		return false, fmt.Errorf("falha ao expandir listagem de débitos: %w", err)
	}
	return clicked, nil
}

// Wait blocks for d or until the session context ends. The legacy page has
// no completion signal, so timed waits are the only suspension points.
func (s *Session) Wait(d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Close tears the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
		s.logger.Debug("Sessão de navegador encerrada")
	}
}
