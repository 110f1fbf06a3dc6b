// Package themes assigns reviews to fixed complaint/feature categories by
// keyword matching. The category table is static configuration; matching is
// deliberately simple and auditable, trading recall for transparency.
package themes

import "github.com/mekonnen-dev/bankpulse/internal/model"

// DefaultCategories returns the eight predefined theme categories with
// their match keywords.
func DefaultCategories() []model.ThemeCategory {
	return []model.ThemeCategory{
		{
			ID:   model.ThemeLoginAccess,
			Name: "Login & Access Issues",
			Keywords: []string{
				"login", "password", "access", "account", "verify", "authentication",
				"sign in", "log in", "cannot login", "login problem", "access denied",
				"unable to login", "wrong password", "forgot password",
			},
		},
		{
			ID:   model.ThemeTransactions,
			Name: "Transaction Problems",
			Keywords: []string{
				"transfer", "transaction", "payment", "send money", "receive money",
				"failed transaction", "transaction failed", "money transfer", "payment failed",
				"transfer failed", "cannot transfer", "pending transaction", "stuck transaction",
			},
		},
		{
			ID:   model.ThemePerformance,
			Name: "App Performance & Speed",
			Keywords: []string{
				"slow", "fast", "speed", "loading", "lag", "crash", "freeze", "hang",
				"responsive", "performance", "crashes", "freezes", "not responding",
				"takes long", "very slow", "too slow", "loading time", "response time",
			},
		},
		{
			ID:   model.ThemeUserInterface,
			Name: "User Interface & Experience",
			Keywords: []string{
				"interface", "design", "layout", "navigation", "button", "menu",
				"user friendly", "easy to use", "complicated", "confusing", "simple",
				"intuitive", "beautiful", "ugly", "modern", "outdated", "cluttered",
			},
		},
		{
			ID:   model.ThemeSupport,
			Name: "Customer Support",
			Keywords: []string{
				"support", "help", "service", "response", "contact", "assistance",
				"customer service", "help desk", "no response", "poor support",
				"bad service", "slow response", "unhelpful", "customer care",
			},
		},
		{
			ID:   model.ThemeSecurity,
			Name: "Security Concerns",
			Keywords: []string{
				"security", "safe", "secure", "hack", "privacy", "protection",
				"data security", "personal information", "secure transaction",
				"trust", "fraud", "scam", "hacked", "privacy concern", "reset",
			},
		},
		{
			ID:   model.ThemeFeatureRequest,
			Name: "Feature Requests",
			Keywords: []string{
				"should", "would", "could", "add", "feature", "want", "need",
				"please add", "missing feature", "suggestion", "recommend",
				"wish", "hope", "improve", "enhancement", "new feature",
			},
		},
		{
			ID:   model.ThemeConnectivity,
			Name: "Network & Connectivity",
			Keywords: []string{
				"network", "connection", "internet", "connect", "offline",
				"no internet", "connection problem", "network error",
				"disconnect", "connection lost", "poor connection",
			},
		},
	}
}
