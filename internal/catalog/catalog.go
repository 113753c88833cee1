// Package catalog loads the static game data the engine consumes: crime
// definitions, business archetypes, territory seeds, and the leveling curve.
// Catalogs are validated against JSON Schemas on load, then treated as
// read-only for the life of the process.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CrimeDef is a static crime catalog entry. Per-player mutable state
// (lastUsed) lives on the player, not here.
type CrimeDef struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	MinReward       float64 `json:"min_reward"`
	MaxReward       float64 `json:"max_reward"`
	XPReward        float64 `json:"xp_reward"`
	EnergyCost      float64 `json:"energy_cost"`
	SuccessRate     float64 `json:"success_rate"`
	RequiredLevel   int     `json:"required_level"`
	CooldownSeconds int     `json:"cooldown_seconds"`
	DurationSeconds int     `json:"duration_seconds"`
}

// FeatureDef is an unlockable business feature.
type FeatureDef struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Cost       float64 `json:"cost"`
	Multiplier float64 `json:"multiplier"`
}

// BusinessDef is a static business archetype.
type BusinessDef struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Category          string       `json:"category"`
	BaseIncome        float64      `json:"base_income"`
	BuildCost         float64      `json:"build_cost"`
	BuildSeconds      int          `json:"build_seconds"`
	UpgradeSeconds    int          `json:"upgrade_seconds"`
	UpgradeCostFactor float64      `json:"upgrade_cost_factor"`
	MaxLevel          int          `json:"max_level"`
	Features          []FeatureDef `json:"features,omitempty"`
}

// TerritoryDef seeds a map territory.
type TerritoryDef struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Owner   string  `json:"owner"`
	Income  float64 `json:"income"`
	XPRate  float64 `json:"xp_rate"`
	Defense float64 `json:"defense"`
}

// CrimeCatalog indexes crime defs by id.
type CrimeCatalog struct {
	ByID   map[string]CrimeDef
	Digest string
}

// BusinessCatalog indexes business archetypes by id.
type BusinessCatalog struct {
	ByID   map[string]BusinessDef
	Digest string
}

// TerritoryCatalog indexes territory seeds by id.
type TerritoryCatalog struct {
	ByID   map[string]TerritoryDef
	Digest string
}

// Catalogs bundles all static data plus the leveling curve.
type Catalogs struct {
	Crimes      CrimeCatalog
	Businesses  BusinessCatalog
	Territories TerritoryCatalog
	Curve       *LevelCurve
}

// Load reads and validates all catalogs from a config directory.
func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadCrimes(filepath.Join(configDir, "crimes.json"), &c.Crimes); err != nil {
		return nil, err
	}
	if err := loadBusinesses(filepath.Join(configDir, "businesses.json"), &c.Businesses); err != nil {
		return nil, err
	}
	if err := loadTerritories(filepath.Join(configDir, "territories.json"), &c.Territories); err != nil {
		return nil, err
	}

	curve, err := loadCurve(filepath.Join(configDir, "levels.json"))
	if err != nil {
		return nil, err
	}
	c.Curve = curve

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// readValidated reads a catalog file, checks it against its schema, and
// unmarshals it into out. The digest of the raw bytes is returned so clients
// can detect catalog drift between server and UI bundles.
func readValidated(path string, schema *jsonschema.Schema, out any) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := schema.Validate(doc); err != nil {
		return "", fmt.Errorf("%s: schema: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sha256Hex(raw), nil
}

func loadCrimes(path string, out *CrimeCatalog) error {
	var defs []CrimeDef
	digest, err := readValidated(path, crimeSchema, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = make(map[string]CrimeDef, len(defs))
	for _, d := range defs {
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("crimes.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadBusinesses(path string, out *BusinessCatalog) error {
	var defs []BusinessDef
	digest, err := readValidated(path, businessSchema, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = make(map[string]BusinessDef, len(defs))
	for _, d := range defs {
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("businesses.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadTerritories(path string, out *TerritoryCatalog) error {
	var defs []TerritoryDef
	digest, err := readValidated(path, territorySchema, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = make(map[string]TerritoryDef, len(defs))
	for _, d := range defs {
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("territories.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
	}
	return nil
}

func loadCurve(path string) (*LevelCurve, error) {
	var spec CurveSpec
	if _, err := readValidated(path, curveSchema, &spec); err != nil {
		return nil, err
	}
	return NewLevelCurve(spec)
}
