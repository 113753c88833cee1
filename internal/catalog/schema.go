package catalog

import "github.com/santhosh-tekuri/jsonschema/v5"

// Catalog files are validated before decoding so a malformed balance drop
// fails at startup, not mid-session.

const crimeSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "min_reward", "max_reward", "xp_reward", "energy_cost", "success_rate", "required_level", "cooldown_seconds"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "min_reward": {"type": "number", "minimum": 0},
      "max_reward": {"type": "number", "minimum": 0},
      "xp_reward": {"type": "number", "minimum": 0},
      "energy_cost": {"type": "number", "minimum": 0},
      "success_rate": {"type": "number", "minimum": 0, "maximum": 1},
      "required_level": {"type": "integer", "minimum": 1},
      "cooldown_seconds": {"type": "integer", "minimum": 0},
      "duration_seconds": {"type": "integer", "minimum": 0}
    }
  }
}`

const businessSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "category", "base_income", "build_cost", "build_seconds", "upgrade_seconds", "upgrade_cost_factor", "max_level"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "category": {"type": "string", "minLength": 1},
      "base_income": {"type": "number", "minimum": 0},
      "build_cost": {"type": "number", "minimum": 0},
      "build_seconds": {"type": "integer", "minimum": 1},
      "upgrade_seconds": {"type": "integer", "minimum": 1},
      "upgrade_cost_factor": {"type": "number", "minimum": 1},
      "max_level": {"type": "integer", "minimum": 1},
      "features": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["id", "name", "cost", "multiplier"],
          "properties": {
            "id": {"type": "string", "minLength": 1},
            "name": {"type": "string", "minLength": 1},
            "cost": {"type": "number", "minimum": 0},
            "multiplier": {"type": "number", "exclusiveMinimum": 0}
          }
        }
      }
    }
  }
}`

const territorySchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "owner", "income", "defense"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "owner": {"type": "string", "enum": ["player", "enemy", "neutral"]},
      "income": {"type": "number", "minimum": 0},
      "xp_rate": {"type": "number", "minimum": 0},
      "defense": {"type": "number", "minimum": 0}
    }
  }
}`

const curveSchemaJSON = `{
  "type": "object",
  "required": ["base_xp", "growth"],
  "properties": {
    "base_xp": {"type": "number", "exclusiveMinimum": 0},
    "growth": {"type": "number", "minimum": 1},
    "table": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0}},
    "ranks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["rank", "min_level"],
        "properties": {
          "rank": {"type": "string"},
          "min_level": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var (
	crimeSchema     = jsonschema.MustCompileString("crimes.schema.json", crimeSchemaJSON)
	businessSchema  = jsonschema.MustCompileString("businesses.schema.json", businessSchemaJSON)
	territorySchema = jsonschema.MustCompileString("territories.schema.json", territorySchemaJSON)
	curveSchema     = jsonschema.MustCompileString("levels.schema.json", curveSchemaJSON)
)
