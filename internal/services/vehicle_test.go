package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/detran-api/internal/config"
	"github.com/nexconsult/detran-api/internal/models"
)

func newTestVehicleService(t *testing.T, cfg config.DetranConfig) (VehicleServiceInterface, CacheServiceInterface) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cache := NewCacheService(nil, time.Minute, logger)
	browser := NewBrowserService(config.BrowserConfig{Headless: true}, logger)

	service, err := NewVehicleService(cfg, cache, browser, logger)
	require.NoError(t, err)
	return service, cache
}

func TestConsultarInvalidPlate(t *testing.T) {
	service, _ := newTestVehicleService(t, config.DetranConfig{
		User: "usuario", Password: "senha", MaxSessions: 1,
	})

	for _, plate := range []string{"", "ABC12", "ABC123456", "!!!!!!!"} {
		_, _, err := service.Consultar(context.Background(), plate)
		assert.ErrorIs(t, err, ErrInvalidPlate, "placa %q", plate)
	}
}

func TestConsultarMissingCredentials(t *testing.T) {
	service, _ := newTestVehicleService(t, config.DetranConfig{MaxSessions: 1})

	_, _, err := service.Consultar(context.Background(), "ABC1234")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestConsultarCacheHit(t *testing.T) {
	service, cache := newTestVehicleService(t, config.DetranConfig{
		User: "usuario", Password: "senha", MaxSessions: 1,
	})

	cached := models.VehicleResponse{
		Plate:         "ABC1234",
		Model:         "FIAT UNO",
		Color:         "BRANCA",
		Municipality:  "FLORIANOPOLIS",
		LicensingYear: 2024,
		Restrictions:  "Sem Restrições",
		TotalDebts:    150.75,
		FoundInDetran: true,
		DebtDetails:   []models.DebtDetail{},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), "placa:ABC1234", string(payload)))

	result, diags, err := service.Consultar(context.Background(), "abc-1234")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "ABC1234", result.Plate)
	assert.Equal(t, "FIAT UNO", result.Model)
	assert.InDelta(t, 150.75, result.TotalDebts, 0.001)
	assert.True(t, result.FoundInDetran)
	assert.NotEmpty(t, diags)
}

func TestWaitForContentCancelledContext(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	service := &VehicleService{
		config: config.DetranConfig{
			SettleDelay:   10 * time.Millisecond,
			SettleTimeout: 50 * time.Millisecond,
			PollInterval:  5 * time.Millisecond,
		},
		logger: logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := &Session{
		id:     "teste",
		ctx:    ctx,
		cancel: func() {},
		logger: logger.WithField("session_id", "teste"),
	}

	var diags Diagnostics
	snapshot, _, err := service.waitForContent(session, 0, &diags)

	// A dead session must surface as an error, never as a no-record answer.
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snapshot)
}

func TestWaitForContentSnapshotFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	service := &VehicleService{
		config: config.DetranConfig{
			SettleDelay:   time.Millisecond,
			SettleTimeout: 50 * time.Millisecond,
			PollInterval:  5 * time.Millisecond,
		},
		logger: logger,
	}

	// A live context with no browser behind it makes every frame capture
	// fail, which is indistinguishable from a crashed Chrome mid-query.
	session := &Session{
		id:     "teste",
		ctx:    context.Background(),
		cancel: func() {},
		logger: logger.WithField("session_id", "teste"),
	}

	var diags Diagnostics
	snapshot, _, err := service.waitForContent(session, 0, &diags)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNavigation)
	assert.Nil(t, snapshot)
}

func TestAssembleResponseDefaults(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	service := &VehicleService{
		config:    config.DetranConfig{},
		extractor: NewExtractor(logger),
		logger:    logger,
	}

	t.Run("absent scalars get defaults", func(t *testing.T) {
		extracted := &ExtractedVehicle{FoundInSource: false}
		response := service.assembleResponse("ABC1234", extracted)

		assert.Equal(t, "ABC1234", response.Plate)
		assert.Equal(t, "Consultado no Detran", response.Model)
		assert.Equal(t, "-", response.Color)
		assert.Equal(t, "SC", response.Municipality)
		assert.Equal(t, time.Now().Year(), response.LicensingYear)
		assert.Equal(t, "Não encontrado", response.Restrictions)
		assert.False(t, response.FoundInDetran)
		assert.Zero(t, response.TotalDebts)
		assert.NotNil(t, response.DebtDetails)
		assert.Empty(t, response.DebtDetails)
	})

	t.Run("extracted values win over defaults", func(t *testing.T) {
		extracted := &ExtractedVehicle{
			FoundInSource:   true,
			Plate:           Field{Value: "MCJ8430", Found: true},
			Model:           Field{Value: "FIAT UNO", Found: true},
			Color:           Field{Value: "BRANCA", Found: true},
			Municipality:    Field{Value: "JOINVILLE", Found: true},
			Restrictions:    Field{Value: "Sem Restrições", Found: true},
			LicensingYear:   2024,
			YearFound:       true,
			HasRestrictions: false,
			TotalDebts:      1402.69,
			TotalFound:      true,
			DebtDetails: []models.DebtDetail{
				{Description: "IPVA", Type: "Débito Vencido", DueDate: "10/01/2024", Value: 1377.19},
			},
		}
		response := service.assembleResponse("MCJ8430", extracted)

		assert.Equal(t, "MCJ8430", response.Plate)
		assert.Equal(t, "FIAT UNO", response.Model)
		assert.Equal(t, "BRANCA", response.Color)
		assert.Equal(t, "JOINVILLE", response.Municipality)
		assert.Equal(t, 2024, response.LicensingYear)
		assert.Equal(t, "Sem Restrições", response.Restrictions)
		assert.False(t, response.HasRestrictions)
		assert.True(t, response.FoundInDetran)
		assert.InDelta(t, 1402.69, response.TotalDebts, 0.001)
		require.Len(t, response.DebtDetails, 1)

		_, err := time.Parse("02/01/2006 15:04:05", response.LastUpdate)
		assert.NoError(t, err)
	})
}
