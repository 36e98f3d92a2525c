package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/detran-api/internal/config"
	"github.com/nexconsult/detran-api/internal/models"
	"github.com/nexconsult/detran-api/internal/utils"
)

const (
	defaultModel        = "Consultado no Detran"
	defaultColor        = "-"
	defaultMunicipality = "SC"
	notFoundRestriction = "Não encontrado"
	lastUpdateLayout    = "02/01/2006 15:04:05"
	maxPollInterval     = 5 * time.Second
)

// VehicleService orchestrates one plate query from validation to the
// canonical record: session launch, form submission, content-ready polling,
// extraction and default substitution. One browser session per query,
// strictly sequential inside it; a counting semaphore bounds how many
// sessions run at once.
type VehicleService struct {
	config    config.DetranConfig
	cache     CacheServiceInterface
	browser   *BrowserService
	extractor *Extractor
	logger    *logrus.Logger

	sessions chan struct{}

	requestCounter int64
	mu             sync.Mutex
}

// NewVehicleService creates a new vehicle consultation service
func NewVehicleService(cfg config.DetranConfig, cache CacheServiceInterface, browser *BrowserService, logger *logrus.Logger) (VehicleServiceInterface, error) {
	maxSessions := cfg.MaxSessions
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &VehicleService{
		config:    cfg,
		cache:     cache,
		browser:   browser,
		extractor: NewExtractor(logger),
		logger:    logger,
		sessions:  make(chan struct{}, maxSessions),
	}, nil
}

// Consultar runs one plate consultation
func (s *VehicleService) Consultar(ctx context.Context, plate string) (*models.VehicleResponse, Diagnostics, error) {
	start := time.Now()

	s.mu.Lock()
	s.requestCounter++
	requestID := s.requestCounter
	s.mu.Unlock()

	cleaned, valid := utils.NormalizePlate(plate)
	if !valid {
		return nil, nil, ErrInvalidPlate
	}

	logger := s.logger.WithFields(logrus.Fields{
		"placa":      cleaned,
		"request_id": requestID,
	})
	logger.Info("Iniciando consulta de veículo")

	if !s.config.HasCredentials() {
		return nil, nil, ErrMissingCredentials
	}

	// Cache first: a hit spares the upstream a full browser session.
	cacheKey := "placa:" + cleaned
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var response models.VehicleResponse
		if decodeErr := json.Unmarshal([]byte(cached), &response); decodeErr != nil {
			logger.WithError(decodeErr).Warn("Falha ao decodificar resultado em cache")
		} else {
			logger.WithField("duration", time.Since(start)).Info("Consulta atendida pelo cache")
			return &response, Diagnostics{"resultado obtido do cache"}, nil
		}
	}

	if err := s.acquireSession(ctx); err != nil {
		return nil, nil, err
	}
	defer s.releaseSession()

	queryCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	response, diags, err := s.consultarDetran(queryCtx, cleaned, logger)
	if err != nil {
		logger.WithError(err).Error("Consulta abortada")
		return nil, diags, err
	}

	if payload, err := json.Marshal(response); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(payload)); err != nil {
			logger.WithError(err).Warn("Falha ao armazenar resultado no cache")
		}
	}

	logger.WithFields(logrus.Fields{
		"duration":   time.Since(start),
		"found":      response.FoundInDetran,
		"debts":      len(response.DebtDetails),
		"totalDebts": response.TotalDebts,
	}).Info("Consulta concluída")

	return response, diags, nil
}

// consultarDetran drives one exclusive browser session to completion. The
// session is closed on every exit path.
func (s *VehicleService) consultarDetran(ctx context.Context, plate string, logger *logrus.Entry) (*models.VehicleResponse, Diagnostics, error) {
	var diags Diagnostics

	session, err := s.browser.NewSession(ctx)
	if err != nil {
		return nil, diags, err
	}
	defer session.Close()

	if err := session.Authenticate(s.config.User, s.config.Password); err != nil {
		return nil, diags, err
	}
	if err := session.Navigate(s.config.BaseURL); err != nil {
		return nil, diags, err
	}

	submission, err := session.SubmitPlate(plate)
	if err != nil {
		return nil, diags, err
	}
	diags.Add(fmt.Sprintf("placa submetida no frame %q (clique=%v)", submission.FrameName, submission.Clicked))

	snapshot, class, err := s.waitForContent(session, submission.FrameIndex, &diags)
	if err != nil {
		return nil, diags, err
	}

	if class == FrameData {
		// The itemized panel loads behind a second unsignaled update.
		if clicked, err := session.ExpandDebtsPanel(); err == nil && clicked {
			diags.Add("listagem de débitos expandida")
			if err := session.Wait(s.config.DebtsPanelDelay); err == nil {
				if refreshed, refreshedClass := s.refreshSnapshot(session, submission.FrameIndex); refreshedClass == FrameData {
					snapshot = refreshed
				}
			}
		} else if err != nil {
			diags.Add("falha ao expandir listagem de débitos: " + err.Error())
		} else {
			diags.Add("cabeçalho de listagem de débitos não encontrado")
		}
	}

	extracted, extractionDiags := s.extractor.Extract(snapshot, time.Now())
	diags = append(diags, extractionDiags...)

	response := s.assembleResponse(plate, extracted)
	logger.WithField("diagnostics", len(diags)).Debug("Extração finalizada")
	return response, diags, nil
}

// waitForContent applies the initial settling delay, then re-tests the
// content-ready classification on a growing interval until the page
// resolves or the settle timeout expires. The legacy system exposes no
// completion signal, so the settle timeout is an expected outcome and
// classifies as not found. A dead session context or a failed frame
// capture is a real failure and propagates as an error: it must never be
// mistaken for (and cached as) an affirmative no-record answer.
func (s *VehicleService) waitForContent(session *Session, preferredIndex int, diags *Diagnostics) (*FrameSnapshot, FrameClass, error) {
	if err := session.Wait(s.config.SettleDelay); err != nil {
		return nil, FrameUnknown, fmt.Errorf("espera inicial interrompida: %w", err)
	}

	deadline := time.Now().Add(s.config.SettleTimeout)
	interval := s.config.PollInterval

	for {
		snapshots, err := session.SnapshotFrames()
		if err != nil {
			if ctxErr := session.ctx.Err(); ctxErr != nil {
				return nil, FrameUnknown, fmt.Errorf("captura de frames interrompida: %w", ctxErr)
			}
			return nil, FrameUnknown, fmt.Errorf("%w: %v", ErrNavigation, err)
		}

		if snapshot, class := SelectDataFrame(snapshots, preferredIndex); class != FrameUnknown {
			diags.Add(fmt.Sprintf("conteúdo classificado no frame %q", snapshot.Name))
			return snapshot, class, nil
		}

		if time.Now().After(deadline) {
			diags.Add(fmt.Sprintf("timeout de %s aguardando conteúdo; tratando como não encontrado", s.config.SettleTimeout))
			return nil, FrameNotFound, nil
		}

		if err := session.Wait(interval); err != nil {
			return nil, FrameUnknown, fmt.Errorf("espera de polling interrompida: %w", err)
		}
		interval = interval * 3 / 2
		if interval > maxPollInterval {
			interval = maxPollInterval
		}
	}
}

// refreshSnapshot re-captures frames after a secondary load
func (s *VehicleService) refreshSnapshot(session *Session, preferredIndex int) (*FrameSnapshot, FrameClass) {
	snapshots, err := session.SnapshotFrames()
	if err != nil {
		return nil, FrameUnknown
	}
	return SelectDataFrame(snapshots, preferredIndex)
}

// assembleResponse substitutes caller-facing defaults for any absent scalar.
// foundInDetran, the debt total and the itemized debts are never defaulted:
// they must reflect what was actually observed.
func (s *VehicleService) assembleResponse(plate string, extracted *ExtractedVehicle) *models.VehicleResponse {
	response := &models.VehicleResponse{
		Plate:           plate,
		Model:           defaultModel,
		Color:           defaultColor,
		Municipality:    defaultMunicipality,
		LicensingYear:   time.Now().Year(),
		Restrictions:    notFoundRestriction,
		HasRestrictions: extracted.HasRestrictions,
		TotalDebts:      extracted.TotalDebts,
		LastUpdate:      time.Now().Format(lastUpdateLayout),
		FoundInDetran:   extracted.FoundInSource,
		DebtDetails:     extracted.DebtDetails,
	}
	if response.DebtDetails == nil {
		response.DebtDetails = []models.DebtDetail{}
	}

	if extracted.Plate.Found {
		response.Plate = extracted.Plate.Value
	}
	if extracted.Model.Found {
		response.Model = extracted.Model.Value
	}
	if extracted.Color.Found {
		response.Color = extracted.Color.Value
	}
	if extracted.Municipality.Found {
		response.Municipality = extracted.Municipality.Value
	}
	if extracted.YearFound {
		response.LicensingYear = extracted.LicensingYear
	}
	if extracted.FoundInSource {
		response.Restrictions = extracted.Restrictions.Value
	}

	return response
}

func (s *VehicleService) acquireSession(ctx context.Context) error {
	select {
	case s.sessions <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrSessionBusy, ctx.Err())
	}
}

func (s *VehicleService) releaseSession() {
	<-s.sessions
}

// Health returns service health status
func (s *VehicleService) Health() map[string]interface{} {
	s.mu.Lock()
	requestCount := s.requestCounter
	s.mu.Unlock()

	return map[string]interface{}{
		"status":          "healthy",
		"request_count":   requestCount,
		"max_sessions":    cap(s.sessions),
		"active_sessions": len(s.sessions),
		"cache_enabled":   s.cache != nil,
		"credentials_set": s.config.HasCredentials(),
	}
}

// Close closes the service and releases resources
func (s *VehicleService) Close() error {
	s.logger.Info("Serviço de consulta de veículos encerrado")
	return nil
}
