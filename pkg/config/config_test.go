package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("KAFKA_ADDR", "k1:9092,k2:9092")

	cfg, err := Load("commerce-service")
	require.NoError(t, err)

	assert.Equal(t, 15*24*time.Hour, cfg.ReturnWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "report_time", cfg.RevenueDiscountPolicy)
	assert.Equal(t, "commerce-service", cfg.ConsumerGroup)
	assert.Equal(t, time.UTC, cfg.ReportLocation)
}

func TestLoad_requiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load("commerce-service")
	assert.Error(t, err)
}

func TestLoad_badReturnWindow(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RETURN_WINDOW", "fortnight")
	_, err := Load("commerce-service")
	assert.ErrorContains(t, err, "RETURN_WINDOW")
}
