package main

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasknotes/internal/api"
	"github.com/sandeepkv93/tasknotes/internal/config"
	"github.com/sandeepkv93/tasknotes/internal/location"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
)

func newClient(cfg config.RuntimeConfig) (*api.Client, error) {
	client, err := api.NewClient(cfg.BaseURL, api.WithLogger(logger.Named("api")))
	if err != nil {
		return nil, err
	}
	if cfg.AuthToken != "" {
		client.SetAuthToken(cfg.AuthToken)
	}
	return client, nil
}

// currentUserID identifies the signed-in user from the session token. An
// unreadable token only disables the own-note styling.
func currentUserID(token string) string {
	if token == "" {
		return ""
	}
	claims, err := api.ParseClaims(token)
	if err != nil {
		logger.Warn("parse session token", zap.Error(err))
		return ""
	}
	if claims.Expired(time.Now()) {
		logger.Warn("session token expired", zap.Time("expires_at", claims.ExpiresAt))
	}
	return claims.UserID
}

// newLocator picks the position source: fixed coordinates, an external
// command, or none.
func newLocator(cfg config.RuntimeConfig) (*location.Acquirer, error) {
	var positioner location.Positioner
	switch {
	case cfg.Location != "":
		lat, lng, err := location.ParseCoordinates(cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("configured location: %w", err)
		}
		positioner = location.StaticPositioner{Lat: lat, Lng: lng}
	case cfg.LocationCommand != "":
		positioner = location.CommandPositioner{Name: "sh", Args: []string{"-c", cfg.LocationCommand}}
	default:
		positioner = location.Unsupported()
	}
	geocoder := location.NewBigDataCloudGeocoder(cfg.GeocodeURL, &http.Client{Timeout: 10 * time.Second})
	return location.NewAcquirer(positioner, geocoder, location.WithLogger(logger.Named("location"))), nil
}

func newRecorder(cfg config.RuntimeConfig) *recorder.Recorder {
	opts := recorder.DefaultOptions()
	opts.MaxDuration = cfg.MaxRecording
	opts.Logger = logger.Named("recorder")
	return recorder.New(recorder.ExecDevice{FFmpegPath: cfg.FFmpegPath}, recorder.NewBlobStore(), opts)
}
