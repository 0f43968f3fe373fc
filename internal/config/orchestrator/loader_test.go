package orchestrator_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Orchestrator.BatchSize)
	assert.False(t, cfg.Orchestrator.ExpandCourseViaProgram)
	assert.Equal(t, "en", cfg.Orchestrator.DefaultLanguage)
	assert.Equal(t, "lessonbell.notifications.dispatch", cfg.In.Topic)
	assert.Equal(t, "lessonbell.delivery.outcomes", cfg.Out.Topic)
	assert.Equal(t, 3*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Orchestrator.Dedupe.TTL)
	assert.Equal(t, 5, cfg.SMS.Burst)
	assert.Equal(t, "orchestrator", cfg.Log.App)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orchestrator:
  batch_size: 25
  expand_course_via_program: true
sms:
  enable: true
  whatsapp: true
`), 0o600))

	t.Setenv("KAFKA_IN_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ORCHESTRATOR_DEFAULT_LANGUAGE", "de")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Orchestrator.BatchSize)
	assert.True(t, cfg.Orchestrator.ExpandCourseViaProgram)
	assert.True(t, cfg.SMS.Enable)
	assert.True(t, cfg.SMS.WhatsApp)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.In.Brokers)
	assert.Equal(t, "de", cfg.Orchestrator.DefaultLanguage)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EMAIL_PROVIDER=sendgrid\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("EMAIL_PROVIDER") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", cfg.Email.Provider)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Orchestrator.BatchSize = 0
	cfg.Email.Provider = "pigeon"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "pigeon")
}
