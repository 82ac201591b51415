package strategy

// builtinProfiles returns the three seeded profiles. Only balanced starts
// active.
func builtinProfiles() []*StrategyProfile {
	return []*StrategyProfile{
		{
			ID:                    "conservative",
			Name:                  "Conservative",
			Description:           "Tight exits and strict entry gates for hostile markets",
			MarketStatePreference: []MarketState{MarketBear, MarketVolatile},
			RiskLevel:             2,
			BuyConditions: BuyConditions{
				MinConfidence:     0.7,
				MaxSlippage:       3,
				PriorityThreshold: 0.7,
			},
			SellConditions: []SellCondition{
				{Type: SellTakeProfit, Enabled: true, Threshold: 10},
				{Type: SellStopLoss, Enabled: true, Threshold: 5},
				{Type: SellTrailingStop, Enabled: true, Threshold: 3},
				{Type: SellTimeLimit, Enabled: true, Threshold: 30},
			},
		},
		defaultBalancedProfile(),
		{
			ID:                    "aggressive",
			Name:                  "Aggressive",
			Description:           "Wide exits for strong bull markets",
			MarketStatePreference: []MarketState{MarketBull},
			RiskLevel:             4,
			BuyConditions: BuyConditions{
				MinConfidence:     0.4,
				MaxSlippage:       10,
				PriorityThreshold: 0.3,
			},
			SellConditions: []SellCondition{
				{Type: SellTakeProfit, Enabled: true, Threshold: 40},
				{Type: SellStopLoss, Enabled: true, Threshold: 15},
				{Type: SellTrailingStop, Enabled: true, Threshold: 10},
				{Type: SellTimeLimit, Enabled: true, Threshold: 120},
			},
		},
	}
}

// defaultBalancedProfile is both the seeded default and the fallback
// recommendation for an empty catalog.
func defaultBalancedProfile() *StrategyProfile {
	return &StrategyProfile{
		ID:                    "balanced",
		Name:                  "Balanced",
		Description:           "Middle-of-the-road gates for stable and bullish markets",
		MarketStatePreference: []MarketState{MarketStable, MarketBull},
		RiskLevel:             3,
		BuyConditions: BuyConditions{
			MinConfidence:     0.6,
			MaxSlippage:       5,
			PriorityThreshold: 0.5,
		},
		SellConditions: []SellCondition{
			{Type: SellTakeProfit, Enabled: true, Threshold: 20},
			{Type: SellStopLoss, Enabled: true, Threshold: 10},
			{Type: SellTrailingStop, Enabled: true, Threshold: 5},
			{Type: SellTimeLimit, Enabled: true, Threshold: 60},
		},
		Active: true,
	}
}
