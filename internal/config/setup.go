package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomz197/hardisks/internal/generator"
	"github.com/tomz197/hardisks/internal/particlefile"
)

// Environment of the servers.
const (
	ParticlesEnv      = "HARDISKS_PARTICLES"
	DiameterEnv       = "HARDISKS_DIAMETER"
	ObstacleRadiusEnv = "HARDISKS_OBSTACLE_RADIUS"
	CountEnv          = "HARDISKS_COUNT"
	MassEnv           = "HARDISKS_MASS"
	RadiusEnv         = "HARDISKS_RADIUS"
	ParticleSpeedEnv  = "HARDISKS_PARTICLE_SPEED"
	SeedEnv           = "HARDISKS_SEED"
	PlaybackSpeedEnv  = "HARDISKS_PLAYBACK_SPEED"
)

// LoadSetup reads the particle file named by HARDISKS_PARTICLES, or
// generates a gas from the HARDISKS_* parameters when it is unset.
func LoadSetup() (*particlefile.Setup, error) {
	if path := GetEnv(ParticlesEnv, ""); path != "" {
		setup, err := particlefile.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := setup.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return setup, nil
	}

	c, err := GeneratorFromEnv()
	if err != nil {
		return nil, err
	}
	return generator.Generate(c)
}

// GeneratorFromEnv builds a generator configuration from the environment.
// The defaults give a gas that is pleasant to watch at playback speed 1.
func GeneratorFromEnv() (generator.Config, error) {
	var errs []error
	float := func(key string, fallback float64) float64 {
		v, err := GetEnvFloat(key, fallback)
		errs = append(errs, err)
		return v
	}
	integer := func(key string, fallback int) int {
		v, err := GetEnvInt(key, fallback)
		errs = append(errs, err)
		return v
	}

	c := generator.Config{
		Diameter:       float(DiameterEnv, 100),
		ObstacleRadius: float(ObstacleRadiusEnv, 8),
		Count:          integer(CountEnv, 120),
		Mass:           float(MassEnv, 1),
		Radius:         float(RadiusEnv, 1.2),
		Speed:          float(ParticleSpeedEnv, 10),
		Seed:           int64(integer(SeedEnv, int(time.Now().UnixNano()))),
	}
	return c, errors.Join(errs...)
}
