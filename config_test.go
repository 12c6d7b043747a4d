package companion

import (
	"testing"
	"time"
)

// ══════════════════════════════════════════════
// EngineConfig
// ══════════════════════════════════════════════

func TestConfig_Defaults(t *testing.T) {
	cfg := NewEngineConfigFromEnv()

	if cfg.CompanionName != "Kitsune" {
		t.Fatalf("name = %q", cfg.CompanionName)
	}
	if cfg.RedisKeyPrefix != "companion" {
		t.Fatalf("prefix = %q", cfg.RedisKeyPrefix)
	}
	if cfg.ExercisePollInterval != time.Second {
		t.Fatalf("poll = %s", cfg.ExercisePollInterval)
	}
	if cfg.Debug {
		t.Fatal("debug should default off")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COMPANION_NAME", "Hoshi")
	t.Setenv("COMPANION_REDIS_ADDR", "localhost:6379")
	t.Setenv("COMPANION_REDIS_DB", "3")
	t.Setenv("COMPANION_EXERCISE_POLL", "250ms")
	t.Setenv("COMPANION_DEBUG", "true")

	cfg := NewEngineConfigFromEnv()
	if cfg.CompanionName != "Hoshi" {
		t.Fatalf("name = %q", cfg.CompanionName)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 3 {
		t.Fatalf("redis = %q/%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.ExercisePollInterval != 250*time.Millisecond {
		t.Fatalf("poll = %s", cfg.ExercisePollInterval)
	}
	if !cfg.Debug {
		t.Fatal("debug should be on")
	}
}

func TestConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("COMPANION_REDIS_DB", "not-a-number")
	t.Setenv("COMPANION_EXERCISE_POLL", "soon")

	cfg := NewEngineConfigFromEnv()
	if cfg.RedisDB != 0 {
		t.Fatalf("db = %d, want fallback 0", cfg.RedisDB)
	}
	if cfg.ExercisePollInterval != time.Second {
		t.Fatalf("poll = %s, want fallback 1s", cfg.ExercisePollInterval)
	}
}

// ══════════════════════════════════════════════
// Catalog integrity
// ══════════════════════════════════════════════

func TestCatalog_EvolutionTraitsExist(t *testing.T) {
	catalog := DefaultTraits()
	for stage := StageSpirit; stage <= StageGuardian; stage++ {
		req, ok := RequirementsFor(stage)
		if !ok {
			t.Fatalf("stage %d has no requirements", stage)
		}
		for _, name := range req.RequiredTraits {
			found := false
			for _, tr := range catalog {
				if tr.Name == name {
					found = true
					if tr.EvolutionStage > stage {
						t.Fatalf("trait %q gated behind stage %d but required to leave stage %d", name, tr.EvolutionStage, stage)
					}
				}
			}
			if !found {
				t.Fatalf("required trait %q missing from catalog", name)
			}
		}
	}
}

func TestCatalog_CooldownsCoverAllTypes(t *testing.T) {
	for _, a := range DefaultActivities() {
		if CooldownFor(a.Type) <= 0 {
			t.Fatalf("activity type %s has no cooldown", a.Type)
		}
	}
}
