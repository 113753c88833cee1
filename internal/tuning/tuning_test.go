package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	d := Default()
	require.NoError(t, d.Validate())
	assert.Equal(t, 48*time.Hour, d.MaxOfflineCatchup())
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_offline_catchup_hours: 12\nsoldier_cost: 400\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)

	// Named keys override, everything else keeps the shipped value.
	assert.Equal(t, 12, got.MaxOfflineCatchupHours)
	assert.Equal(t, 400.0, got.SoldierCost)
	assert.Equal(t, Default().EnergyRegenPerHour, got.EnergyRegenPerHour)
	assert.Equal(t, Default().AttackSeconds, got.AttackSeconds)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("soldier_loss_fraction: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "soldier_loss_fraction")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Tuning)
		errSub string
	}{
		{"zero catchup ceiling", func(tn *Tuning) { tn.MaxOfflineCatchupHours = 0 }, "max_offline_catchup_hours"},
		{"negative regen", func(tn *Tuning) { tn.EnergyRegenPerHour = -1 }, "energy_regen_per_hour"},
		{"zero max energy", func(tn *Tuning) { tn.BaseMaxEnergy = 0 }, "base_max_energy"},
		{"zero attack duration", func(tn *Tuning) { tn.AttackSeconds = 0 }, "attack_seconds"},
		{"loss fraction above one", func(tn *Tuning) { tn.SoldierLossFraction = 2 }, "soldier_loss_fraction"},
		{"earnings cut below zero", func(tn *Tuning) { tn.UnitEarningsCut = -0.1 }, "unit_earnings_cut"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tn := Default()
			tc.mutate(&tn)
			assert.ErrorContains(t, tn.Validate(), tc.errSub)
		})
	}
}
