package catalog

// Default returns the shipped catalog set. Tests and the scenario runner use
// it directly; the server loads JSON files and falls back to this when no
// config directory is provided.
func Default() *Catalogs {
	crimes := []CrimeDef{
		{ID: "pickpocket", Name: "Pickpocketing", MinReward: 50, MaxReward: 150, XPReward: 10, EnergyCost: 5, SuccessRate: 0.9, RequiredLevel: 1, CooldownSeconds: 30},
		{ID: "mugging", Name: "Mugging", MinReward: 150, MaxReward: 400, XPReward: 25, EnergyCost: 10, SuccessRate: 0.75, RequiredLevel: 2, CooldownSeconds: 120},
		{ID: "store_robbery", Name: "Store Robbery", MinReward: 500, MaxReward: 1200, XPReward: 60, EnergyCost: 20, SuccessRate: 0.6, RequiredLevel: 4, CooldownSeconds: 600, DurationSeconds: 60},
		{ID: "truck_hijack", Name: "Truck Hijacking", MinReward: 1500, MaxReward: 4000, XPReward: 150, EnergyCost: 35, SuccessRate: 0.45, RequiredLevel: 7, CooldownSeconds: 1800, DurationSeconds: 300},
		{ID: "bank_heist", Name: "Bank Heist", MinReward: 10000, MaxReward: 30000, XPReward: 600, EnergyCost: 60, SuccessRate: 0.25, RequiredLevel: 12, CooldownSeconds: 14400, DurationSeconds: 1800},
	}

	businesses := []BusinessDef{
		{ID: "pizzeria", Name: "Pizzeria", Category: "front", BaseIncome: 120, BuildCost: 1000, BuildSeconds: 60, UpgradeSeconds: 300, UpgradeCostFactor: 1.6, MaxLevel: 10,
			Features: []FeatureDef{
				{ID: "back_room", Name: "Back Room", Cost: 2500, Multiplier: 1.5},
				{ID: "delivery", Name: "Delivery Fleet", Cost: 6000, Multiplier: 1.25},
			}},
		{ID: "laundromat", Name: "Laundromat", Category: "front", BaseIncome: 200, BuildCost: 2500, BuildSeconds: 300, UpgradeSeconds: 900, UpgradeCostFactor: 1.7, MaxLevel: 10,
			Features: []FeatureDef{
				{ID: "night_shift", Name: "Night Shift", Cost: 5000, Multiplier: 1.4},
			}},
		{ID: "speakeasy", Name: "Speakeasy", Category: "vice", BaseIncome: 450, BuildCost: 8000, BuildSeconds: 1800, UpgradeSeconds: 3600, UpgradeCostFactor: 1.8, MaxLevel: 8,
			Features: []FeatureDef{
				{ID: "card_tables", Name: "Card Tables", Cost: 12000, Multiplier: 1.6},
				{ID: "protection", Name: "Protection Racket", Cost: 20000, Multiplier: 1.35},
			}},
		{ID: "casino", Name: "Casino", Category: "vice", BaseIncome: 1500, BuildCost: 50000, BuildSeconds: 14400, UpgradeSeconds: 28800, UpgradeCostFactor: 2.0, MaxLevel: 6},
	}

	territories := []TerritoryDef{
		{ID: "docks", Name: "The Docks", Owner: "neutral", Income: 300, XPRate: 5, Defense: 40},
		{ID: "little_italy", Name: "Little Italy", Owner: "player", Income: 200, XPRate: 3, Defense: 25},
		{ID: "warehouse_row", Name: "Warehouse Row", Owner: "enemy", Income: 500, XPRate: 8, Defense: 90},
		{ID: "uptown", Name: "Uptown", Owner: "enemy", Income: 900, XPRate: 15, Defense: 180},
	}

	spec := CurveSpec{
		BaseXP: 100,
		Growth: 1.6,
		Table:  []float64{100, 250, 500, 900, 1500},
		Ranks: []RankThreshold{
			{Rank: "Soldato", MinLevel: 1},
			{Rank: "Caporegime", MinLevel: 5},
			{Rank: "Consigliere", MinLevel: 10},
			{Rank: "Sottocapo", MinLevel: 18},
			{Rank: "Capo", MinLevel: 30},
		},
	}
	curve, err := NewLevelCurve(spec)
	if err != nil {
		// The shipped spec is statically valid; reaching this is a
		// programming error.
		panic(err)
	}

	c := &Catalogs{Curve: curve}

	c.Crimes.ByID = make(map[string]CrimeDef, len(crimes))
	for _, d := range crimes {
		c.Crimes.ByID[d.ID] = d
	}
	c.Businesses.ByID = make(map[string]BusinessDef, len(businesses))
	for _, d := range businesses {
		c.Businesses.ByID[d.ID] = d
	}
	c.Territories.ByID = make(map[string]TerritoryDef, len(territories))
	for _, d := range territories {
		c.Territories.ByID[d.ID] = d
	}

	return c
}
